package appointments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code raised by the partial unique
// index over (doctor_id, appointment_date, appointment_time) for
// non-cancelled rows. It is the single atomicity guard for double bookings.
const uniqueViolation = "23505"

// querier is the subset of pgxpool.Pool the repository needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists appointments and answers availability queries.
type Repository struct {
	db querier
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithQuerier allows injecting mocks for tests.
func NewRepositoryWithQuerier(q querier) *Repository {
	return &Repository{db: q}
}

// AvailableSlots returns the doctor's open "HH:MM" slots for a calendar date,
// ascending. A doctor whose weekly pattern does not include the date's weekday
// has no slots; times held by non-cancelled appointments are excluded.
func (r *Repository) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	var days, times []string
	query := `
		SELECT available_days, available_times
		FROM doctors
		WHERE id = $1
	`
	if err := r.db.QueryRow(ctx, query, doctorID).Scan(&days, &times); err != nil {
		return nil, fmt.Errorf("appointments: load doctor availability: %w", err)
	}

	weekday := date.Weekday().String()
	available := false
	for _, d := range days {
		if d == weekday {
			available = true
			break
		}
	}
	if !available {
		return nil, nil
	}

	booked := map[string]bool{}
	rows, err := r.db.Query(ctx, `
		SELECT appointment_time
		FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2 AND status <> 'cancelled'
	`, doctorID, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("appointments: load booked times: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("appointments: scan booked time: %w", err)
		}
		booked[t] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var open []string
	for _, t := range times {
		if !booked[t] {
			open = append(open, t)
		}
	}
	sort.Strings(open)
	return open, nil
}

// Create inserts a pending appointment. The partial unique index rejects a
// second non-cancelled booking for the same doctor/date/time; that conflict
// is surfaced as ErrSlotTaken.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*Appointment, error) {
	id := uuid.New()
	query := `
		INSERT INTO appointments
			(id, clinic_id, department_id, doctor_id, patient_name, phone_number,
			 appointment_date, appointment_time, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		p.ClinicID,
		p.DepartmentID,
		p.DoctorID,
		p.PatientName,
		p.PhoneNumber,
		p.Date,
		p.Time,
		p.Notes,
	).Scan(&createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}

	return &Appointment{
		ID:           id,
		ClinicID:     p.ClinicID,
		DepartmentID: p.DepartmentID,
		DoctorID:     p.DoctorID,
		PatientName:  p.PatientName,
		PhoneNumber:  p.PhoneNumber,
		Date:         p.Date,
		Time:         p.Time,
		Status:       StatusPending,
		Notes:        p.Notes,
		CreatedAt:    createdAt,
	}, nil
}
