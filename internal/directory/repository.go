package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgxpool.Pool the repository needs. Satisfied by
// *pgxpool.Pool and by pgxmock pools in tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads clinic directory records from Postgres.
type Repository struct {
	db querier
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("directory: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithQuerier allows injecting mocks for tests.
func NewRepositoryWithQuerier(q querier) *Repository {
	return &Repository{db: q}
}

// ClinicByNumber resolves the clinic that owns an inbound phone number.
func (r *Repository) ClinicByNumber(ctx context.Context, phone string) (*Clinic, error) {
	query := `
		SELECT id, name, phone, created_at
		FROM clinics
		WHERE phone = $1
	`
	var c Clinic
	if err := r.db.QueryRow(ctx, query, phone).Scan(&c.ID, &c.Name, &c.Phone, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClinicNotFound
		}
		return nil, fmt.Errorf("directory: clinic by number: %w", err)
	}
	return &c, nil
}

// ActiveDepartments lists a clinic's active departments ordered by name.
func (r *Repository) ActiveDepartments(ctx context.Context, clinicID uuid.UUID) ([]Department, error) {
	query := `
		SELECT id, clinic_id, name, COALESCE(description, '')
		FROM departments
		WHERE clinic_id = $1 AND is_active = TRUE
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query, clinicID)
	if err != nil {
		return nil, fmt.Errorf("directory: list departments: %w", err)
	}
	defer rows.Close()

	var depts []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.ClinicID, &d.Name, &d.Description); err != nil {
			return nil, fmt.Errorf("directory: scan department: %w", err)
		}
		depts = append(depts, d)
	}
	return depts, rows.Err()
}

// ActiveDoctors lists a department's active doctors ordered by name.
func (r *Repository) ActiveDoctors(ctx context.Context, clinicID, departmentID uuid.UUID) ([]Doctor, error) {
	query := `
		SELECT id, clinic_id, department_id, name, COALESCE(specialization, ''),
		       available_days, available_times
		FROM doctors
		WHERE clinic_id = $1 AND department_id = $2 AND is_active = TRUE
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query, clinicID, departmentID)
	if err != nil {
		return nil, fmt.Errorf("directory: list doctors: %w", err)
	}
	defer rows.Close()

	var doctors []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.ClinicID, &d.DepartmentID, &d.Name,
			&d.Specialization, &d.AvailableDays, &d.AvailableTimes); err != nil {
			return nil, fmt.Errorf("directory: scan doctor: %w", err)
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}
