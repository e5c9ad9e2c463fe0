package appointments

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSlotTaken is returned when a non-cancelled appointment already occupies
// the requested doctor/date/time.
var ErrSlotTaken = errors.New("appointments: slot already booked")

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Appointment is a booked visit.
type Appointment struct {
	ID           uuid.UUID `json:"id"`
	ClinicID     uuid.UUID `json:"clinic_id"`
	DepartmentID uuid.UUID `json:"department_id"`
	DoctorID     uuid.UUID `json:"doctor_id"`
	PatientName  string    `json:"patient_name"`
	PhoneNumber  string    `json:"phone_number"`
	Date         string    `json:"appointment_date"` // YYYY-MM-DD
	Time         string    `json:"appointment_time"` // HH:MM
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateParams carries the fields needed to book an appointment.
type CreateParams struct {
	ClinicID     uuid.UUID
	DepartmentID uuid.UUID
	DoctorID     uuid.UUID
	PatientName  string
	PhoneNumber  string
	Date         string
	Time         string
	Notes        string
}
