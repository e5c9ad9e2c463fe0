package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mikhlas911/medizap-ai/internal/appointments"
	"github.com/mikhlas911/medizap-ai/internal/calllog"
	"github.com/mikhlas911/medizap-ai/internal/directory"
	"github.com/mikhlas911/medizap-ai/pkg/logging"
)

// Attempt thresholds before a step escalates to a human.
const (
	slotAttemptLimit    = 3
	confirmAttemptLimit = 2
)

// defaultCollaboratorTimeout bounds every directory/booking/log call; an
// expired deadline is fatal for the turn and routes to transfer.
const defaultCollaboratorTimeout = 5 * time.Second

var (
	transferKeywords    = []string{"human", "person", "staff", "representative", "transfer"}
	affirmativeKeywords = []string{"yes", "confirm", "book", "schedule", "okay", "sure"}
	negativeKeywords    = []string{"no", "cancel", "change"}
	closingKeywords     = []string{"no", "nothing", "that's all"}
)

// DirectoryReader is the read-only directory collaborator.
type DirectoryReader interface {
	ActiveDepartments(ctx context.Context, clinicID uuid.UUID) ([]directory.Department, error)
	ActiveDoctors(ctx context.Context, clinicID, departmentID uuid.UUID) ([]directory.Doctor, error)
}

// BookingProvider answers availability queries and commits appointments.
// AvailableSlots must return ascending "HH:MM" starts already filtered for
// the doctor's weekly pattern and existing non-cancelled bookings. Create
// must reject a double booking with appointments.ErrSlotTaken.
type BookingProvider interface {
	AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	Create(ctx context.Context, p appointments.CreateParams) (*appointments.Appointment, error)
}

// CallLogAppender records booking outcomes. Optional; a nil appender skips
// the write.
type CallLogAppender interface {
	AppendCall(ctx context.Context, e calllog.CallEntry) error
}

// Action tells the transport what to do after speaking the reply text.
type Action string

const (
	// ActionGather keeps the call open and captures the next utterance.
	ActionGather Action = "gather"
	// ActionTransfer dials the configured human operator.
	ActionTransfer Action = "transfer"
	// ActionHangup ends the call leg.
	ActionHangup Action = "hangup"
)

// Reply is the abstract response the renderer turns into telephony markup.
type Reply struct {
	Text   string
	Action Action
}

func gather(text string) Reply   { return Reply{Text: text, Action: ActionGather} }
func transfer(text string) Reply { return Reply{Text: text, Action: ActionTransfer} }
func hangup(text string) Reply   { return Reply{Text: text, Action: ActionHangup} }

// TurnInput is one caller utterance plus the call's ambient identifiers.
type TurnInput struct {
	CallSID     string
	ClinicID    uuid.UUID
	ClinicName  string
	CallerPhone string
	Transcript  string
}

// Engine drives the booking dialogue one turn at a time. The core is
// synchronous and deterministic; all I/O goes through the injected
// collaborators, each call bounded by Timeout.
type Engine struct {
	directory DirectoryReader
	bookings  BookingProvider
	callLogs  CallLogAppender
	logger    *logging.Logger
	timeout   time.Duration
	now       func() time.Time
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	Directory DirectoryReader
	Bookings  BookingProvider
	CallLogs  CallLogAppender
	Logger    *logging.Logger
	Timeout   time.Duration
	Now       func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCollaboratorTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		directory: cfg.Directory,
		bookings:  cfg.Bookings,
		callLogs:  cfg.CallLogs,
		logger:    cfg.Logger,
		timeout:   cfg.Timeout,
		now:       cfg.Now,
	}
}

// Turn consumes one utterance and returns the reply plus the updated state.
// Everything here except the booking insert is safe to recompute on a
// duplicate webhook delivery.
func (e *Engine) Turn(ctx context.Context, in TurnInput, st State) (Reply, State) {
	input := strings.ToLower(strings.TrimSpace(in.Transcript))

	if st.Step != StepComplete && containsAny(input, transferKeywords) {
		st.advance(StepTransfer)
		return transfer(msgTransferRequested), st
	}

	switch st.Step {
	case StepGreeting:
		return e.greetingStep(in, st)
	case StepName:
		return e.nameStep(ctx, in, st)
	case StepDepartment:
		return e.departmentStep(ctx, in, input, st)
	case StepDoctor:
		return e.doctorStep(input, st)
	case StepDate:
		return e.dateStep(ctx, in, st)
	case StepTime:
		return e.timeStep(input, st)
	case StepConfirmation:
		return e.confirmationStep(ctx, in, input, st)
	case StepComplete:
		return e.completeStep(input, st)
	case StepTransfer:
		return transfer(msgTransferRequested), st
	default:
		st.advance(StepTransfer)
		return transfer(msgTechnicalTrouble), st
	}
}

func (e *Engine) greetingStep(in TurnInput, st State) (Reply, State) {
	st.advance(StepName)
	return gather(msgGreeting(in.ClinicName)), st
}

func (e *Engine) nameStep(ctx context.Context, in TurnInput, st State) (Reply, State) {
	trimmed := strings.TrimSpace(in.Transcript)
	if len(trimmed) < 2 {
		st.Attempts++
		if st.Attempts >= slotAttemptLimit {
			st.advance(StepTransfer)
			return transfer(msgNameTransfer), st
		}
		return gather(msgNameRetry), st
	}

	depts, err := e.listDepartments(ctx, in.ClinicID)
	if err != nil {
		e.logger.Error("conversation: department lookup failed", "error", err, "call_sid", in.CallSID)
		st.advance(StepTransfer)
		return transfer(msgNoDepartments), st
	}
	if len(depts) == 0 {
		st.advance(StepTransfer)
		return transfer(msgNoDepartments), st
	}

	st.Slots.PatientName = ExtractName(in.Transcript)
	st.advance(StepDepartment)
	return gather(msgDepartmentList(st.Slots.PatientName, departmentNames(depts))), st
}

func (e *Engine) departmentStep(ctx context.Context, in TurnInput, input string, st State) (Reply, State) {
	depts, err := e.listDepartments(ctx, in.ClinicID)
	if err != nil {
		e.logger.Error("conversation: department lookup failed", "error", err, "call_sid", in.CallSID)
		st.advance(StepTransfer)
		return transfer(msgNoDepartments), st
	}

	dept, ok := Match(input, depts, func(d directory.Department) string { return d.Name })
	if !ok {
		st.Attempts++
		if st.Attempts >= slotAttemptLimit {
			st.advance(StepTransfer)
			return transfer(msgDepartmentGiveUp), st
		}
		return gather(msgDepartmentRetry(departmentNames(depts))), st
	}

	st.Slots.DepartmentID = dept.ID.String()
	st.Slots.DepartmentName = dept.Name

	doctors, err := e.listDoctors(ctx, in.ClinicID, dept.ID)
	if err != nil {
		e.logger.Error("conversation: doctor lookup failed", "error", err, "call_sid", in.CallSID)
		st.advance(StepTransfer)
		return transfer(msgTechnicalTrouble), st
	}
	if len(doctors) == 0 {
		st.advance(StepDepartment)
		return gather(msgNoDoctorsInDepartment(dept.Name)), st
	}

	st.Slots.Doctors = doctors

	if len(doctors) == 1 {
		st.Slots.DoctorID = doctors[0].ID.String()
		st.Slots.DoctorName = doctors[0].Name
		st.advance(StepDate)
		return gather(msgSingleDoctor(dept.Name, doctors[0].Name)), st
	}

	st.advance(StepDoctor)
	return gather(msgDoctorList(dept.Name, doctorNames(doctors))), st
}

func (e *Engine) doctorStep(input string, st State) (Reply, State) {
	doc, ok := Match(input, st.Slots.Doctors, func(d directory.Doctor) string { return d.Name })
	if !ok {
		st.Attempts++
		if st.Attempts >= slotAttemptLimit {
			st.advance(StepTransfer)
			return transfer(msgDoctorGiveUp), st
		}
		return gather(msgDoctorRetry(doctorNames(st.Slots.Doctors))), st
	}

	st.Slots.DoctorID = doc.ID.String()
	st.Slots.DoctorName = doc.Name
	st.advance(StepDate)
	return gather(msgDoctorChosen(doc.Name)), st
}

func (e *Engine) dateStep(ctx context.Context, in TurnInput, st State) (Reply, State) {
	now := e.now()
	date, ok := ParseDate(in.Transcript, now)
	if !ok {
		st.Attempts++
		if st.Attempts >= slotAttemptLimit {
			st.advance(StepTransfer)
			return transfer(msgDateGiveUp), st
		}
		return gather(msgDateRetry), st
	}

	// Window violations reprompt without consuming an attempt: the caller
	// said a real date, just not a bookable one.
	today := midnight(now)
	if date.Before(today) {
		return gather(msgDatePast), st
	}
	if date.After(now.AddDate(0, 3, 0)) {
		return gather(msgDateTooFar), st
	}

	doctorID, err := uuid.Parse(st.Slots.DoctorID)
	if err != nil {
		st.advance(StepTransfer)
		return transfer(msgTechnicalTrouble), st
	}
	slots, err := e.availableSlots(ctx, doctorID, date)
	if err != nil {
		e.logger.Error("conversation: slot query failed", "error", err, "call_sid", in.CallSID)
		st.advance(StepTransfer)
		return transfer(msgTechnicalTrouble), st
	}
	if len(slots) == 0 {
		st.advance(StepDate)
		return gather(msgNoSlots(st.Slots.DoctorName, date)), st
	}

	st.Slots.Date = date.Format("2006-01-02")
	st.Slots.TimeSlots = slots
	st.advance(StepTime)
	return gather(msgSlotList(st.Slots.DoctorName, date, slots)), st
}

func (e *Engine) timeStep(input string, st State) (Reply, State) {
	slot, ok := MatchTime(input, st.Slots.TimeSlots)
	if !ok {
		st.Attempts++
		if st.Attempts >= slotAttemptLimit {
			st.advance(StepTransfer)
			return transfer(msgTimeGiveUp), st
		}
		return gather(msgTimeRetry(st.Slots.TimeSlots)), st
	}

	st.Slots.Time = slot
	st.advance(StepConfirmation)
	return gather(msgConfirm(
		st.Slots.PatientName, st.Slots.DoctorName, st.Slots.DepartmentName,
		st.mustDate(), slot,
	)), st
}

func (e *Engine) confirmationStep(ctx context.Context, in TurnInput, input string, st State) (Reply, State) {
	switch {
	case containsAny(input, affirmativeKeywords):
		appt, err := e.book(ctx, in, st)
		if err != nil {
			// Conflict or persistence failure: the slot was only
			// optimistically reserved, so no automatic retry.
			e.logger.Error("conversation: booking failed", "error", err, "call_sid", in.CallSID)
			st.advance(StepTransfer)
			return transfer(msgBookingFailed), st
		}
		e.appendBookedCallLog(ctx, in, st)
		st.advance(StepComplete)
		return gather(msgBooked(
			st.Slots.PatientName, st.Slots.DoctorName,
			st.mustDate(), st.Slots.Time, appt.ID.String(),
		)), st

	case containsAny(input, negativeKeywords):
		st.advance(StepDate)
		return gather(msgChangeDate), st

	default:
		st.Attempts++
		if st.Attempts >= confirmAttemptLimit {
			st.advance(StepTransfer)
			return transfer(msgConfirmGiveUp), st
		}
		return gather(msgConfirmRetry), st
	}
}

func (e *Engine) completeStep(input string, st State) (Reply, State) {
	if containsAny(input, closingKeywords) {
		return hangup(msgFarewell), st
	}
	st.advance(StepTransfer)
	return transfer(msgFurtherRequests), st
}

// ----- collaborator calls, each bounded by the engine timeout -----

func (e *Engine) listDepartments(ctx context.Context, clinicID uuid.UUID) ([]directory.Department, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.directory.ActiveDepartments(ctx, clinicID)
}

func (e *Engine) listDoctors(ctx context.Context, clinicID, departmentID uuid.UUID) ([]directory.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.directory.ActiveDoctors(ctx, clinicID, departmentID)
}

func (e *Engine) availableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.bookings.AvailableSlots(ctx, doctorID, date)
}

func (e *Engine) book(ctx context.Context, in TurnInput, st State) (*appointments.Appointment, error) {
	doctorID, err := uuid.Parse(st.Slots.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("conversation: bad doctor id %q: %w", st.Slots.DoctorID, err)
	}
	departmentID, err := uuid.Parse(st.Slots.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("conversation: bad department id %q: %w", st.Slots.DepartmentID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.bookings.Create(ctx, appointments.CreateParams{
		ClinicID:     in.ClinicID,
		DepartmentID: departmentID,
		DoctorID:     doctorID,
		PatientName:  st.Slots.PatientName,
		PhoneNumber:  in.CallerPhone,
		Date:         st.Slots.Date,
		Time:         st.Slots.Time,
		Notes:        "Booked via AI voice agent",
	})
}

// appendBookedCallLog records the booking outcome. The duration is patched
// later when the completion webhook arrives; a failed append never fails
// the booking.
func (e *Engine) appendBookedCallLog(ctx context.Context, in TurnInput, st State) {
	if e.callLogs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	err := e.callLogs.AppendCall(ctx, calllog.CallEntry{
		ClinicID:          in.ClinicID,
		CallSID:           in.CallSID,
		CallerPhone:       in.CallerPhone,
		Summary:           fmt.Sprintf("Appointment booked for %s with Dr. %s", st.Slots.PatientName, st.Slots.DoctorName),
		AppointmentBooked: true,
	})
	if err != nil {
		e.logger.Warn("conversation: call log append failed", "error", err, "call_sid", in.CallSID)
	}
}

// ----- helpers -----

func containsAny(input string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(input, kw) {
			return true
		}
	}
	return false
}

func departmentNames(depts []directory.Department) []string {
	names := make([]string, len(depts))
	for i, d := range depts {
		names[i] = d.Name
	}
	return names
}

func doctorNames(doctors []directory.Doctor) []string {
	names := make([]string, len(doctors))
	for i, d := range doctors {
		names[i] = d.Name
	}
	return names
}

// mustDate parses the cached slot date; the step machine only stores dates
// that already passed ParseDate, so a zero time here means corrupted state.
func (s State) mustDate() time.Time {
	d, err := time.Parse("2006-01-02", s.Slots.Date)
	if err != nil {
		return time.Time{}
	}
	return d
}
