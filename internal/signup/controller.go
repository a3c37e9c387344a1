package signup

import (
	"github.com/curbcycle/pickup-platform/internal/calendar"
	"github.com/curbcycle/pickup-platform/internal/pricing"
)

// Quantity bounds for the can stepper.
const (
	MaxQuantity = 10
)

// Controller owns one pricing.Selection per service stream and applies the
// form rules: enable/disable defaults, frequency/quantity coupling, and
// clamped steppers. Every mutation returns the freshly recomputed breakdown,
// so callers can redisplay pricing synchronously.
type Controller struct {
	selections map[pricing.ServiceType]*pricing.Selection
}

// NewController starts with every service disabled.
func NewController() *Controller {
	c := &Controller{selections: make(map[pricing.ServiceType]*pricing.Selection, len(pricing.AllServices))}
	for _, svc := range pricing.AllServices {
		c.selections[svc] = &pricing.Selection{
			Service:   svc,
			Frequency: pricing.FrequencyNone,
		}
	}
	return c
}

// State is the serializable form snapshot stashed between pages.
type State struct {
	Selections []pricing.Selection `json:"selections"`
}

// FromState restores a controller from a snapshot. Unknown services in the
// snapshot are dropped; missing services come back disabled.
func FromState(st State) *Controller {
	c := NewController()
	for _, sel := range st.Selections {
		if existing, ok := c.selections[sel.Service]; ok {
			*existing = sel
		}
	}
	return c
}

// State snapshots the controller in display order.
func (c *Controller) State() State {
	return State{Selections: c.Selections()}
}

// Selections returns the current selections in display order.
func (c *Controller) Selections() []pricing.Selection {
	out := make([]pricing.Selection, 0, len(pricing.AllServices))
	for _, svc := range pricing.AllServices {
		out = append(out, *c.selections[svc])
	}
	return out
}

// Selection returns the current state for one service.
func (c *Controller) Selection(svc pricing.ServiceType) (pricing.Selection, bool) {
	sel, ok := c.selections[svc]
	if !ok {
		return pricing.Selection{}, false
	}
	return *sel, true
}

// Quote recomputes the pricing breakdown for the current selections.
func (c *Controller) Quote() pricing.Breakdown {
	return pricing.ComputeTotal(c.Selections())
}

// ToggleService enables or disables a service. Enabling defaults the cadence
// to weekly, bumps a zero quantity to one, and copies the trash pickup day
// onto other streams (a property has a single physical pickup day). Disabling
// resets cadence and quantity.
func (c *Controller) ToggleService(svc pricing.ServiceType, enabled bool) pricing.Breakdown {
	sel, ok := c.selections[svc]
	if !ok {
		return c.Quote()
	}
	sel.Enabled = enabled
	if enabled {
		sel.Frequency = pricing.FrequencyWeekly
		if sel.Quantity < 1 {
			sel.Quantity = 1
		}
		if svc != pricing.ServiceTrash && sel.PickupDay == "" {
			sel.PickupDay = c.selections[pricing.ServiceTrash].PickupDay
		}
	} else {
		sel.Frequency = pricing.FrequencyNone
		sel.Quantity = 0
	}
	return c.Quote()
}

// ChangeFrequency sets the cadence. A cadence of none zeroes the quantity;
// any real cadence bumps a zero quantity to one. The rule is uniform across
// services.
func (c *Controller) ChangeFrequency(svc pricing.ServiceType, freq pricing.Frequency) pricing.Breakdown {
	sel, ok := c.selections[svc]
	if !ok {
		return c.Quote()
	}
	sel.Frequency = freq
	if freq == pricing.FrequencyNone {
		sel.Quantity = 0
	} else if sel.Quantity == 0 {
		sel.Quantity = 1
	}
	return c.Quote()
}

// SetPickupDay records the pickup weekday for a service. Setting the trash
// day propagates to enabled streams that never chose their own.
func (c *Controller) SetPickupDay(svc pricing.ServiceType, day string) pricing.Breakdown {
	sel, ok := c.selections[svc]
	if !ok {
		return c.Quote()
	}
	sel.PickupDay = day
	if svc == pricing.ServiceTrash {
		for _, other := range pricing.AllServices {
			if other == pricing.ServiceTrash {
				continue
			}
			if o := c.selections[other]; o.Enabled && o.PickupDay == "" {
				o.PickupDay = day
			}
		}
	}
	return c.Quote()
}

// IncrementQuantity steps the can count up, clamped to MaxQuantity.
func (c *Controller) IncrementQuantity(svc pricing.ServiceType) pricing.Breakdown {
	sel, ok := c.selections[svc]
	if !ok {
		return c.Quote()
	}
	if sel.Quantity < MaxQuantity {
		sel.Quantity++
	}
	return c.Quote()
}

// DecrementQuantity steps the can count down, clamped to the minimum (one
// while enabled, zero otherwise). Stepping past the bound is a silent no-op.
func (c *Controller) DecrementQuantity(svc pricing.ServiceType) pricing.Breakdown {
	sel, ok := c.selections[svc]
	if !ok {
		return c.Quote()
	}
	min := 0
	if sel.Enabled {
		min = 1
	}
	if sel.Quantity > min {
		sel.Quantity--
	}
	return c.Quote()
}

// Validate checks the form before submission. It returns field-keyed
// messages; an empty map means the form may submit.
func (c *Controller) Validate() map[string]string {
	problems := make(map[string]string)
	anyEnabled := false
	for _, svc := range pricing.AllServices {
		sel := c.selections[svc]
		if !sel.Enabled {
			continue
		}
		anyEnabled = true
		field := string(svc)
		if sel.Frequency == pricing.FrequencyNone {
			problems[field+".frequency"] = "Choose a pickup frequency for " + svc.Label() + "."
		}
		if _, ok := calendar.ParseWeekday(sel.PickupDay); !ok {
			problems[field+".pickup_day"] = "Choose a pickup day for " + svc.Label() + "."
		}
		if sel.Quantity < 1 {
			problems[field+".quantity"] = "Choose at least one can for " + svc.Label() + "."
		}
	}
	if !anyEnabled {
		problems["services"] = "Select at least one service to continue."
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}
