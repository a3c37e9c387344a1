package profiles

import (
	"time"

	"github.com/google/uuid"

	"github.com/curbcycle/pickup-platform/internal/pricing"
)

// Profile is a verified resident contact record.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	AddressLine string    `json:"address_line,omitempty"`
	Zip         string    `json:"zip,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ServiceSchedule records one service stream a profile wants reminders for.
type ServiceSchedule struct {
	ID        uuid.UUID           `json:"id"`
	ProfileID uuid.UUID           `json:"profile_id"`
	Service   pricing.ServiceType `json:"service"`
	Frequency pricing.Frequency   `json:"frequency"`
	Quantity  int                 `json:"quantity"`
	PickupDay string              `json:"pickup_day"`
}

// ReminderCandidate joins a due schedule with its profile's contact details.
type ReminderCandidate struct {
	ScheduleID uuid.UUID
	ProfileID  uuid.UUID
	Name       string
	Email      string
	Phone      string
	Service    pricing.ServiceType
	PickupDay  string
}
