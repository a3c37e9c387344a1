package calendar

import (
	"strings"
	"time"
)

// MinimumLeadDays is the minimum number of days between today and the
// earliest selectable service-start date.
const MinimumLeadDays = 14

// DefaultWeekday is used when a pickup weekday was never chosen.
const DefaultWeekday = time.Monday

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps a weekday name to time.Weekday. The second return is
// false for unrecognized input.
func ParseWeekday(s string) (time.Weekday, bool) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	return wd, ok
}

// midnight truncates a time to its calendar date.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FirstAvailable returns the earliest date at or after today+MinimumLeadDays
// that falls on the target weekday.
func FirstAvailable(today time.Time, target time.Weekday) time.Time {
	candidate := midnight(today).AddDate(0, 0, MinimumLeadDays)
	for candidate.Weekday() != target {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// Picker is the service-start-date widget state. It constrains selectable
// dates to the pickup weekday at or after the lead-time cutoff, while still
// allowing month-to-month browsing.
type Picker struct {
	today       time.Time
	target      time.Weekday
	targetKnown bool

	selected *time.Time

	open         bool
	visibleYear  int
	visibleMonth time.Month
}

// NewPicker constructs a picker for the given pickup weekday. An
// unrecognized weekday falls back to Monday for the default date, and the
// weekday constraint is relaxed when filtering selectable days. The default
// selection is computed immediately.
func NewPicker(today time.Time, pickupDay string) *Picker {
	p := &Picker{today: midnight(today)}
	p.Retarget(pickupDay)
	return p
}

// Retarget changes the pickup weekday and re-runs the default-date scan.
func (p *Picker) Retarget(pickupDay string) {
	wd, ok := ParseWeekday(pickupDay)
	if !ok {
		wd = DefaultWeekday
	}
	p.target = wd
	p.targetKnown = ok

	d := FirstAvailable(p.today, p.target)
	p.selected = &d
	p.visibleYear, p.visibleMonth = d.Year(), d.Month()
}

// Selected returns the currently selected start date, if any.
func (p *Picker) Selected() *time.Time {
	return p.selected
}

// IsOpen reports whether the widget is open.
func (p *Picker) IsOpen() bool {
	return p.open
}

// VisibleMonth returns the month currently rendered.
func (p *Picker) VisibleMonth() (int, time.Month) {
	return p.visibleYear, p.visibleMonth
}

// Open shows the widget on the month of the selected date (or today).
func (p *Picker) Open() {
	if p.open {
		return
	}
	ref := p.today
	if p.selected != nil {
		ref = *p.selected
	}
	p.visibleYear, p.visibleMonth = ref.Year(), ref.Month()
	p.open = true
}

// Close dismisses the widget without changing the selection.
func (p *Picker) Close() {
	p.open = false
}

// Navigate moves the visible month by delta months. The selection is
// untouched. A closed picker ignores navigation.
func (p *Picker) Navigate(delta int) {
	if !p.open {
		return
	}
	m := time.Date(p.visibleYear, p.visibleMonth, 1, 0, 0, 0, 0, p.today.Location()).AddDate(0, delta, 0)
	p.visibleYear, p.visibleMonth = m.Year(), m.Month()
}

// IsDisabled reports whether a day cell may not be selected: before the
// lead-time cutoff, or off the pickup weekday. With an unrecognized pickup
// weekday only the lead-time constraint applies.
func (p *Picker) IsDisabled(d time.Time) bool {
	d = midnight(d)
	if d.Before(p.today.AddDate(0, 0, MinimumLeadDays)) {
		return true
	}
	if p.targetKnown && d.Weekday() != p.target {
		return true
	}
	return false
}

// Select picks a start date and closes the widget. Selecting a disabled day
// or selecting while closed is a silent no-op; the return reports whether the
// selection was accepted.
func (p *Picker) Select(d time.Time) bool {
	if !p.open || p.IsDisabled(d) {
		return false
	}
	d = midnight(d)
	p.selected = &d
	p.open = false
	return true
}
