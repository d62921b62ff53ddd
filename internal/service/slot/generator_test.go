package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinichub/scheduling-api/internal/model"
)

func TestTemplateIntervals(t *testing.T) {
	tests := []struct {
		name string
		tmpl model.WeeklyScheduleTemplate
		want []Interval
	}{
		{
			name: "morning window with one break",
			tmpl: model.WeeklyScheduleTemplate{
				StartTime:       "09:00",
				EndTime:         "12:00",
				DurationMinutes: 30,
				Breaks:          model.BreakList{{Start: "10:30", End: "10:45"}},
			},
			want: []Interval{
				{Start: "09:00", End: "09:30"},
				{Start: "09:30", End: "10:00"},
				{Start: "10:00", End: "10:30"},
				{Start: "10:45", End: "11:15"},
				{Start: "11:15", End: "11:45"},
			},
		},
		{
			name: "no breaks exact fit",
			tmpl: model.WeeklyScheduleTemplate{
				StartTime:       "08:00",
				EndTime:         "10:00",
				DurationMinutes: 60,
			},
			want: []Interval{
				{Start: "08:00", End: "09:00"},
				{Start: "09:00", End: "10:00"},
			},
		},
		{
			name: "no partial trailing slot",
			tmpl: model.WeeklyScheduleTemplate{
				StartTime:       "09:00",
				EndTime:         "10:50",
				DurationMinutes: 30,
			},
			want: []Interval{
				{Start: "09:00", End: "09:30"},
				{Start: "09:30", End: "10:00"},
				{Start: "10:00", End: "10:30"},
			},
		},
		{
			name: "break at window start",
			tmpl: model.WeeklyScheduleTemplate{
				StartTime:       "09:00",
				EndTime:         "11:00",
				DurationMinutes: 30,
				Breaks:          model.BreakList{{Start: "09:00", End: "09:30"}},
			},
			want: []Interval{
				{Start: "09:30", End: "10:00"},
				{Start: "10:00", End: "10:30"},
				{Start: "10:30", End: "11:00"},
			},
		},
		{
			name: "break swallowing the tail",
			tmpl: model.WeeklyScheduleTemplate{
				StartTime:       "09:00",
				EndTime:         "10:00",
				DurationMinutes: 30,
				Breaks:          model.BreakList{{Start: "09:45", End: "10:00"}},
			},
			want: []Interval{
				{Start: "09:00", End: "09:30"},
			},
		},
		{
			name: "window shorter than duration",
			tmpl: model.WeeklyScheduleTemplate{
				StartTime:       "09:00",
				EndTime:         "09:20",
				DurationMinutes: 30,
			},
			want: nil,
		},
		{
			name: "unsorted breaks",
			tmpl: model.WeeklyScheduleTemplate{
				StartTime:       "09:00",
				EndTime:         "12:00",
				DurationMinutes: 60,
				Breaks:          model.BreakList{{Start: "11:00", End: "11:30"}, {Start: "09:30", End: "10:00"}},
			},
			want: []Interval{
				{Start: "10:00", End: "11:00"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := templateIntervals(&tt.tmpl)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTemplateIntervalsInvalid(t *testing.T) {
	_, err := templateIntervals(&model.WeeklyScheduleTemplate{
		StartTime:       "9am",
		EndTime:         "12:00",
		DurationMinutes: 30,
	})
	assert.Error(t, err)

	_, err = templateIntervals(&model.WeeklyScheduleTemplate{
		StartTime:       "09:00",
		EndTime:         "12:00",
		DurationMinutes: 0,
	})
	assert.Error(t, err)
}

func TestTemplateIntervalsConsecutiveAndNonOverlapping(t *testing.T) {
	tmpl := model.WeeklyScheduleTemplate{
		StartTime:       "08:00",
		EndTime:         "17:00",
		DurationMinutes: 25,
		Breaks:          model.BreakList{{Start: "12:00", End: "13:00"}, {Start: "15:10", End: "15:20"}},
	}
	intervals, err := templateIntervals(&tmpl)
	require.NoError(t, err)
	require.NotEmpty(t, intervals)

	for i, iv := range intervals {
		start, err := clockToMinutes(iv.Start)
		require.NoError(t, err)
		end, err := clockToMinutes(iv.End)
		require.NoError(t, err)
		assert.Equal(t, tmpl.DurationMinutes, end-start)

		for _, br := range tmpl.Breaks {
			bs, _ := clockToMinutes(br.Start)
			be, _ := clockToMinutes(br.End)
			assert.False(t, intersects(start, end, bs, be), "interval %s-%s crosses break", iv.Start, iv.End)
		}

		if i > 0 {
			prevEnd, _ := clockToMinutes(intervals[i-1].End)
			assert.GreaterOrEqual(t, start, prevEnd)
		}
	}
}

func TestOverrideIntervalsSortedVerbatim(t *testing.T) {
	override := model.ScheduleOverride{
		Type: model.OverrideTypeCustom,
		Slots: model.OverrideIntervalList{
			{Start: "14:00", End: "14:40"},
			{Start: "10:00", End: "10:20"},
		},
	}
	got := overrideIntervals(&override)
	assert.Equal(t, []Interval{
		{Start: "10:00", End: "10:20"},
		{Start: "14:00", End: "14:40"},
	}, got)
}

func TestIsoDayOfWeek(t *testing.T) {
	assert.Equal(t, 1, isoDayOfWeek(mustDate(t, "2025-06-02"))) // Monday
	assert.Equal(t, 6, isoDayOfWeek(mustDate(t, "2025-06-07"))) // Saturday
	assert.Equal(t, 7, isoDayOfWeek(mustDate(t, "2025-06-08"))) // Sunday
}
