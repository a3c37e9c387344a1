package pricing

import (
	"fmt"
	"strings"
)

// ServiceType identifies one of the curbside collection streams.
type ServiceType string

const (
	ServiceTrash     ServiceType = "trash"
	ServiceRecycling ServiceType = "recycling"
	ServiceCompost   ServiceType = "compost"
)

// AllServices lists the streams in display order.
var AllServices = []ServiceType{ServiceTrash, ServiceRecycling, ServiceCompost}

// Label returns the customer-facing name for the service.
func (s ServiceType) Label() string {
	switch s {
	case ServiceTrash:
		return "Trash"
	case ServiceRecycling:
		return "Recycling"
	case ServiceCompost:
		return "Compost"
	}
	return titleCase(string(s))
}

// Valid reports whether the service type is one of the known streams.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceTrash, ServiceRecycling, ServiceCompost:
		return true
	}
	return false
}

// Frequency is the pickup cadence for a service.
type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyNone     Frequency = "none"
)

// ParseFrequency normalizes raw input; anything unrecognized maps to None.
func ParseFrequency(s string) Frequency {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyWeekly:
		return FrequencyWeekly
	case FrequencyBiweekly:
		return FrequencyBiweekly
	case FrequencyMonthly:
		return FrequencyMonthly
	}
	return FrequencyNone
}

// Label returns the customer-facing cadence name.
func (f Frequency) Label() string {
	switch f {
	case FrequencyWeekly:
		return "Weekly"
	case FrequencyBiweekly:
		return "Every other week"
	case FrequencyMonthly:
		return "Monthly"
	}
	return "No service"
}

// DefaultBaseFeeCents is the fixed monthly base charge, applied once when any
// service is active.
const DefaultBaseFeeCents int64 = 2900

// monthlyRateCents maps a cadence to its flat monthly per-can rate.
// Unknown cadences are simply absent and price at zero.
var monthlyRateCents = map[Frequency]int64{
	FrequencyWeekly:   1000,
	FrequencyBiweekly: 500,
	FrequencyMonthly:  250,
}

// UnitPriceCents returns the monthly per-can rate for a cadence.
func UnitPriceCents(f Frequency) int64 {
	return monthlyRateCents[f]
}

// Selection captures the signup form state for one service stream.
type Selection struct {
	Service   ServiceType `json:"service"`
	Enabled   bool        `json:"enabled"`
	Frequency Frequency   `json:"frequency"`
	Quantity  int         `json:"quantity"`
	PickupDay string      `json:"pickup_day"`
}

// chargeable reports whether the selection produces a line item. Frequency and
// quantity are authoritative here: a selection left enabled with no cadence
// (or vice versa) prices as "no charge" rather than erroring.
func (s Selection) chargeable() bool {
	return UnitPriceCents(s.Frequency) > 0 && s.Quantity > 0
}

// LineItem is one priced row of the breakdown.
type LineItem struct {
	Service        ServiceType `json:"service"`
	Label          string      `json:"label"`
	Frequency      Frequency   `json:"frequency"`
	PickupDay      string      `json:"pickup_day"`
	Quantity       int         `json:"quantity"`
	UnitPriceCents int64       `json:"unit_price_cents"`
	SubtotalCents  int64       `json:"subtotal_cents"`
}

// Breakdown is the derived monthly price for a set of selections.
type Breakdown struct {
	BaseFeeCents int64      `json:"base_fee_cents"`
	LineItems    []LineItem `json:"line_items"`
	TotalCents   int64      `json:"total_cents"`
}

// FormattedTotal renders the total as display currency.
func (b Breakdown) FormattedTotal() string {
	return FormatCents(b.TotalCents)
}

// ComputeTotal prices a set of selections. It is pure and deterministic: the
// base fee is applied once iff at least one selection is chargeable, and each
// chargeable selection contributes unitPrice(frequency) * quantity. Input
// order is preserved in the line items.
func ComputeTotal(selections []Selection) Breakdown {
	var b Breakdown
	for _, sel := range selections {
		if !sel.chargeable() {
			continue
		}
		unit := UnitPriceCents(sel.Frequency)
		item := LineItem{
			Service:        sel.Service,
			Frequency:      sel.Frequency,
			PickupDay:      sel.PickupDay,
			Quantity:       sel.Quantity,
			UnitPriceCents: unit,
			SubtotalCents:  unit * int64(sel.Quantity),
		}
		item.Label = lineLabel(sel)
		b.LineItems = append(b.LineItems, item)
	}
	if len(b.LineItems) > 0 {
		b.BaseFeeCents = DefaultBaseFeeCents
	}
	b.TotalCents = b.BaseFeeCents
	for _, item := range b.LineItems {
		b.TotalCents += item.SubtotalCents
	}
	return b
}

func lineLabel(sel Selection) string {
	noun := "can"
	if sel.Quantity != 1 {
		noun = "cans"
	}
	label := fmt.Sprintf("%s — %d %s, %s", sel.Service.Label(), sel.Quantity, noun, strings.ToLower(sel.Frequency.Label()))
	if day := strings.TrimSpace(sel.PickupDay); day != "" {
		label += fmt.Sprintf(" pickup on %s", titleCase(day))
	}
	return label
}

func titleCase(s string) string {
	s = strings.ToLower(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// FormatCents renders a cent amount as standard 2-decimal currency.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
