package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clinichub/scheduling-api/internal/model"
)

// ActorClaims is the token payload issued by the identity provider. This
// service only validates and reads it; issuing stays external.
type ActorClaims struct {
	jwt.RegisteredClaims
	ActorType string `json:"actor_type"`
	ClinicID  string `json:"clinic_id,omitempty"`
}

type JWTService interface {
	ValidateToken(token string) (*model.Actor, error)
	GenerateToken(actor model.Actor, ttl time.Duration) (string, error)
}

type jwtService struct {
	secret []byte
}

func NewJWTService(secret string) JWTService {
	return &jwtService{secret: []byte(secret)}
}

func (s *jwtService) ValidateToken(tokenString string) (*model.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid actor id: %w", err)
	}

	actor := &model.Actor{
		Type: model.ActorType(claims.ActorType),
		ID:   id,
	}
	switch actor.Type {
	case model.ActorTypeDoctor, model.ActorTypeClinic, model.ActorTypeSecretary:
	default:
		return nil, fmt.Errorf("unknown actor type %q", claims.ActorType)
	}

	if claims.ClinicID != "" {
		clinicID, err := uuid.Parse(claims.ClinicID)
		if err != nil {
			return nil, fmt.Errorf("invalid clinic id: %w", err)
		}
		actor.ClinicID = clinicID
	}
	return actor, nil
}

// GenerateToken mirrors the identity provider's token shape for local
// development and tests.
func (s *jwtService) GenerateToken(actor model.Actor, ttl time.Duration) (string, error) {
	claims := ActorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		ActorType: string(actor.Type),
	}
	if actor.ClinicID != uuid.Nil {
		claims.ClinicID = actor.ClinicID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
