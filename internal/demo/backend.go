// Package demo provides an in-memory clinic backend so the service can run
// end to end without Postgres. Used when DEMO_MODE=true.
package demo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"github.com/mikhlas911/medizap-ai/internal/appointments"
	"github.com/mikhlas911/medizap-ai/internal/directory"
)

var demoDepartments = []string{"Cardiology", "Dermatology", "General Practice", "Pediatrics"}

var demoSlots = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"14:00", "14:30", "15:00", "15:30", "16:00", "16:30",
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// Backend is a self-contained clinic directory plus booking book. It
// satisfies the clinic resolver, directory reader and booking provider
// interfaces the webhook stack needs.
type Backend struct {
	mu          sync.Mutex
	clinic      directory.Clinic
	departments []directory.Department
	doctors     map[uuid.UUID][]directory.Doctor
	byDoctor    map[uuid.UUID]directory.Doctor
	booked      map[string]bool
}

// NewBackend seeds a demo clinic with fake doctors. The same seed always
// produces the same roster.
func NewBackend(clinicPhone string, seed uint64) *Backend {
	faker := gofakeit.New(seed)

	b := &Backend{
		clinic: directory.Clinic{
			ID:    uuid.New(),
			Name:  "Medizap Demo Clinic",
			Phone: clinicPhone,
		},
		doctors:  make(map[uuid.UUID][]directory.Doctor),
		byDoctor: make(map[uuid.UUID]directory.Doctor),
		booked:   make(map[string]bool),
	}

	for i, deptName := range demoDepartments {
		dept := directory.Department{
			ID:       uuid.New(),
			ClinicID: b.clinic.ID,
			Name:     deptName,
		}
		b.departments = append(b.departments, dept)

		// Cardiology gets one doctor so the auto-select path is easy to
		// demo; the rest get two.
		count := 2
		if i == 0 {
			count = 1
		}
		for j := 0; j < count; j++ {
			doc := directory.Doctor{
				ID:             uuid.New(),
				ClinicID:       b.clinic.ID,
				DepartmentID:   dept.ID,
				Name:           faker.Name(),
				Specialization: deptName,
				AvailableDays:  weekdays,
				AvailableTimes: demoSlots,
			}
			b.doctors[dept.ID] = append(b.doctors[dept.ID], doc)
			b.byDoctor[doc.ID] = doc
		}
	}
	return b
}

// ClinicByNumber resolves every called number to the demo clinic.
func (b *Backend) ClinicByNumber(ctx context.Context, phone string) (*directory.Clinic, error) {
	clinic := b.clinic
	return &clinic, nil
}

func (b *Backend) ActiveDepartments(ctx context.Context, clinicID uuid.UUID) ([]directory.Department, error) {
	out := make([]directory.Department, len(b.departments))
	copy(out, b.departments)
	return out, nil
}

func (b *Backend) ActiveDoctors(ctx context.Context, clinicID, departmentID uuid.UUID) ([]directory.Doctor, error) {
	out := make([]directory.Doctor, len(b.doctors[departmentID]))
	copy(out, b.doctors[departmentID])
	return out, nil
}

func (b *Backend) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	doc, ok := b.byDoctor[doctorID]
	if !ok {
		return nil, fmt.Errorf("demo: unknown doctor %s", doctorID)
	}

	weekday := date.Weekday().String()
	available := false
	for _, d := range doc.AvailableDays {
		if d == weekday {
			available = true
			break
		}
	}
	if !available {
		return nil, nil
	}

	day := date.Format("2006-01-02")
	b.mu.Lock()
	defer b.mu.Unlock()

	var open []string
	for _, slot := range doc.AvailableTimes {
		if !b.booked[slotKey(doctorID, day, slot)] {
			open = append(open, slot)
		}
	}
	sort.Strings(open)
	return open, nil
}

// Create books a slot; the mutex makes the check-and-set atomic, so of two
// simultaneous bookings for the same slot exactly one wins.
func (b *Backend) Create(ctx context.Context, p appointments.CreateParams) (*appointments.Appointment, error) {
	key := slotKey(p.DoctorID, p.Date, p.Time)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.booked[key] {
		return nil, appointments.ErrSlotTaken
	}
	b.booked[key] = true

	return &appointments.Appointment{
		ID:           uuid.New(),
		ClinicID:     p.ClinicID,
		DepartmentID: p.DepartmentID,
		DoctorID:     p.DoctorID,
		PatientName:  p.PatientName,
		PhoneNumber:  p.PhoneNumber,
		Date:         p.Date,
		Time:         p.Time,
		Status:       appointments.StatusPending,
		Notes:        p.Notes,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func slotKey(doctorID uuid.UUID, date, slot string) string {
	return doctorID.String() + "|" + date + "|" + slot
}
