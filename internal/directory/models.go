package directory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrClinicNotFound is returned when no clinic is configured for a phone number.
var ErrClinicNotFound = errors.New("directory: clinic not found")

// Clinic is the tenant that owns departments, doctors and appointments.
type Clinic struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Department groups doctors within a clinic.
type Department struct {
	ID          uuid.UUID `json:"id"`
	ClinicID    uuid.UUID `json:"clinic_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

// Doctor is a bookable practitioner. AvailableDays holds weekday names
// ("Monday"...); AvailableTimes holds "HH:MM" slot starts.
type Doctor struct {
	ID             uuid.UUID `json:"id"`
	ClinicID       uuid.UUID `json:"clinic_id"`
	DepartmentID   uuid.UUID `json:"department_id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization,omitempty"`
	AvailableDays  []string  `json:"available_days,omitempty"`
	AvailableTimes []string  `json:"available_times,omitempty"`
}
