package conversation

import (
	"github.com/mikhlas911/medizap-ai/internal/directory"
)

// Step identifies where the dialogue stands. Steps advance monotonically with
// two sanctioned regressions: an unavailable date loops date->date and a
// declined confirmation returns confirmation->date, both with attempts reset.
type Step string

const (
	StepGreeting     Step = "greeting"
	StepName         Step = "name"
	StepDepartment   Step = "department"
	StepDoctor       Step = "doctor"
	StepDate         Step = "date"
	StepTime         Step = "time"
	StepConfirmation Step = "confirmation"
	StepComplete     Step = "complete"
	StepTransfer     Step = "transfer"
)

// Slots is the booking information gathered so far, plus the candidate lists
// cached for later matching (doctor choices, open time slots).
type Slots struct {
	PatientName    string             `json:"patient_name,omitempty"`
	DepartmentID   string             `json:"department_id,omitempty"`
	DepartmentName string             `json:"department_name,omitempty"`
	DoctorID       string             `json:"doctor_id,omitempty"`
	DoctorName     string             `json:"doctor_name,omitempty"`
	Date           string             `json:"appointment_date,omitempty"` // YYYY-MM-DD
	Time           string             `json:"appointment_time,omitempty"` // HH:MM
	Doctors        []directory.Doctor `json:"doctors,omitempty"`
	TimeSlots      []string           `json:"time_slots,omitempty"`
}

// State is the per-call conversation state persisted between webhook turns.
// The zero value is not usable; call NewState.
type State struct {
	Step     Step  `json:"step"`
	Slots    Slots `json:"slots"`
	Attempts int   `json:"attempts"`
}

// NewState returns the state for a freshly answered call.
func NewState() State {
	return State{Step: StepGreeting}
}

// advance moves to the next step. Attempts always reset on a transition,
// including the sanctioned regressions back to StepDate.
func (s *State) advance(next Step) {
	s.Step = next
	s.Attempts = 0
}
