// Package calllog appends per-call and per-turn audit rows. Both tables are
// append-only; the only mutation is patching a call's duration once the
// telephony platform reports completion.
package calllog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CallEntry summarizes a whole call.
type CallEntry struct {
	ClinicID          uuid.UUID `json:"clinic_id"`
	CallSID           string    `json:"call_sid"`
	CallerPhone       string    `json:"caller_phone"`
	DurationSeconds   int       `json:"call_duration"`
	Summary           string    `json:"call_summary"`
	AppointmentBooked bool      `json:"appointment_booked"`
	CreatedAt         time.Time `json:"created_at"`
}

// TurnEntry records one utterance/reply pair for audit and debugging.
type TurnEntry struct {
	ClinicID      uuid.UUID `json:"clinic_id"`
	CallSID       string    `json:"call_sid"`
	CallerPhone   string    `json:"caller_phone"`
	Step          string    `json:"conversation_step"`
	UserInput     string    `json:"user_input"`
	AgentResponse string    `json:"agent_response"`
}

// querier is the subset of pgxpool.Pool the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists call and conversation logs in Postgres.
type Store struct {
	db querier
}

// NewStore initializes a store backed by pgxpool.
func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("calllog: pgx pool required")
	}
	return &Store{db: pool}
}

// NewStoreWithQuerier allows injecting mocks for tests.
func NewStoreWithQuerier(q querier) *Store {
	return &Store{db: q}
}

// AppendCall inserts a call summary row. The duration is typically zero at
// insert time and patched by SetDuration at call completion.
func (s *Store) AppendCall(ctx context.Context, e CallEntry) error {
	query := `
		INSERT INTO call_logs
			(id, clinic_id, call_sid, caller_phone, call_duration, call_summary, appointment_booked)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := s.db.Exec(ctx, query,
		uuid.New(), e.ClinicID, e.CallSID, e.CallerPhone,
		e.DurationSeconds, e.Summary, e.AppointmentBooked,
	); err != nil {
		return fmt.Errorf("calllog: insert call log: %w", err)
	}
	return nil
}

// SetDuration patches the duration on a call's log rows.
func (s *Store) SetDuration(ctx context.Context, callSID string, seconds int) error {
	query := `
		UPDATE call_logs
		SET call_duration = $2
		WHERE call_sid = $1
	`
	if _, err := s.db.Exec(ctx, query, callSID, seconds); err != nil {
		return fmt.Errorf("calllog: update duration: %w", err)
	}
	return nil
}

// AppendTurn inserts one conversation turn.
func (s *Store) AppendTurn(ctx context.Context, e TurnEntry) error {
	query := `
		INSERT INTO conversation_logs
			(id, clinic_id, call_sid, caller_phone, conversation_step, user_input, agent_response)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := s.db.Exec(ctx, query,
		uuid.New(), e.ClinicID, e.CallSID, e.CallerPhone,
		e.Step, e.UserInput, e.AgentResponse,
	); err != nil {
		return fmt.Errorf("calllog: insert conversation log: %w", err)
	}
	return nil
}
