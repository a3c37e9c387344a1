package calendar

import "time"

// DayCell is one renderable day of the month grid.
type DayCell struct {
	Day      int       `json:"day"`
	Date     time.Time `json:"date"`
	Disabled bool      `json:"disabled"`
	Selected bool      `json:"selected"`
	Today    bool      `json:"today"`
}

// MonthGrid is a month of day cells plus the leading blanks that align the
// first of the month to its weekday column (Sunday first).
type MonthGrid struct {
	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
	Leading int        `json:"leading"`
	Days    []DayCell  `json:"days"`
}

// Grid renders the visible month. It reflects the picker state at call time
// and must be re-rendered after any transition that changes the visible month
// or the selection.
func (p *Picker) Grid() MonthGrid {
	first := time.Date(p.visibleYear, p.visibleMonth, 1, 0, 0, 0, 0, p.today.Location())
	g := MonthGrid{
		Year:    p.visibleYear,
		Month:   p.visibleMonth,
		Leading: int(first.Weekday()),
	}

	daysInMonth := first.AddDate(0, 1, -1).Day()
	g.Days = make([]DayCell, 0, daysInMonth)
	for day := 1; day <= daysInMonth; day++ {
		date := time.Date(p.visibleYear, p.visibleMonth, day, 0, 0, 0, 0, p.today.Location())
		cell := DayCell{
			Day:      day,
			Date:     date,
			Disabled: p.IsDisabled(date),
			Today:    date.Equal(p.today),
		}
		if p.selected != nil && date.Equal(*p.selected) {
			cell.Selected = true
		}
		g.Days = append(g.Days, cell)
	}
	return g
}
