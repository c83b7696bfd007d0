package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Layout is the storage and wire format for calendar dates.
const Layout = "2006-01-02"

// MaxRangeDays bounds date ranges accepted from callers.
const MaxRangeDays = 365

// Calendar normalizes dates into the fixed business timezone.
type Calendar struct {
	loc *time.Location
}

func New(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc}
}

// Load builds a Calendar from an IANA zone name ("" means UTC).
func Load(name string) (*Calendar, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return New(time.UTC), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load business timezone %q: %w", name, err)
	}
	return New(loc), nil
}

func (c *Calendar) Location() *time.Location { return c.loc }

// Parse reads a YYYY-MM-DD date as midnight in the business timezone.
func (c *Calendar) Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, strings.TrimSpace(s), c.loc)
}

// Normalize converts any instant to midnight of its calendar day in the business timezone.
func (c *Calendar) Normalize(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// Key is the storage form of the date t falls on.
func (c *Calendar) Key(t time.Time) string {
	return c.Normalize(t).Format(Layout)
}

// Days returns every date in [start, end]; empty when end < start.
func (c *Calendar) Days(start, end time.Time) []time.Time {
	start, end = c.Normalize(start), c.Normalize(end)
	if end.Before(start) {
		return nil
	}
	out := make([]time.Time, 0, c.Span(start, end))
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Span is the inclusive number of days between start and end.
func (c *Calendar) Span(start, end time.Time) int {
	start, end = c.Normalize(start), c.Normalize(end)
	// Date arithmetic via UTC avoids DST-length days.
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours()/24) + 1
}

// Unique normalizes, dedupes and sorts dates ascending.
func (c *Calendar) Unique(dates []time.Time) []time.Time {
	seen := make(map[string]struct{}, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		n := c.Normalize(d)
		k := n.Format(Layout)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Keys formats dates in storage form.
func (c *Calendar) Keys(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = c.Key(d)
	}
	return out
}
