package slot

import (
	"fmt"
	"sort"
	"time"

	"github.com/clinichub/scheduling-api/internal/model"
)

// Interval is a candidate [Start, End) slot interval in ClockFormat.
type Interval struct {
	Start string
	End   string
}

func clockToMinutes(s string) (int, error) {
	t, err := time.Parse(model.ClockFormat, s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func minutesToClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func intersects(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// templateIntervals subdivides the working window into consecutive
// duration-length intervals, skipping over breaks. A candidate that would
// intersect a break jumps to the break's end; an interval is emitted only
// when its full duration fits before the next break and the end of the
// window, so there are no partial trailing slots.
func templateIntervals(tmpl *model.WeeklyScheduleTemplate) ([]Interval, error) {
	start, err := clockToMinutes(tmpl.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := clockToMinutes(tmpl.EndTime)
	if err != nil {
		return nil, err
	}
	if tmpl.DurationMinutes <= 0 {
		return nil, fmt.Errorf("invalid slot duration %d", tmpl.DurationMinutes)
	}

	type span struct{ start, end int }
	breaks := make([]span, 0, len(tmpl.Breaks))
	for _, b := range tmpl.Breaks {
		bs, err := clockToMinutes(b.Start)
		if err != nil {
			return nil, err
		}
		be, err := clockToMinutes(b.End)
		if err != nil {
			return nil, err
		}
		breaks = append(breaks, span{bs, be})
	}
	sort.Slice(breaks, func(i, j int) bool { return breaks[i].start < breaks[j].start })

	var intervals []Interval
	cur := start
	for cur+tmpl.DurationMinutes <= end {
		blocked := false
		for _, br := range breaks {
			if intersects(cur, cur+tmpl.DurationMinutes, br.start, br.end) {
				cur = br.end
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		intervals = append(intervals, Interval{
			Start: minutesToClock(cur),
			End:   minutesToClock(cur + tmpl.DurationMinutes),
		})
		cur += tmpl.DurationMinutes
	}
	return intervals, nil
}

// overrideIntervals converts a custom override's explicit windows into slot
// intervals. Each window becomes exactly one slot; no subdivision.
func overrideIntervals(override *model.ScheduleOverride) []Interval {
	intervals := make([]Interval, 0, len(override.Slots))
	for _, s := range override.Slots {
		intervals = append(intervals, Interval{Start: s.Start, End: s.End})
	}
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })
	return intervals
}
