package conversation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikhlas911/medizap-ai/internal/appointments"
	"github.com/mikhlas911/medizap-ai/internal/calllog"
	"github.com/mikhlas911/medizap-ai/internal/directory"
)

// ----- collaborator fakes -----

type fakeDirectory struct {
	departments []directory.Department
	doctors     map[uuid.UUID][]directory.Doctor
	err         error
}

func (f *fakeDirectory) ActiveDepartments(ctx context.Context, clinicID uuid.UUID) ([]directory.Department, error) {
	return f.departments, f.err
}

func (f *fakeDirectory) ActiveDoctors(ctx context.Context, clinicID, departmentID uuid.UUID) ([]directory.Doctor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doctors[departmentID], nil
}

type fakeBookings struct {
	slots     []string
	slotsErr  error
	created   []appointments.CreateParams
	createErr error
}

func (f *fakeBookings) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	return f.slots, f.slotsErr
}

func (f *fakeBookings) Create(ctx context.Context, p appointments.CreateParams) (*appointments.Appointment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, p)
	return &appointments.Appointment{
		ID:       uuid.New(),
		ClinicID: p.ClinicID,
		DoctorID: p.DoctorID,
		Date:     p.Date,
		Time:     p.Time,
		Status:   appointments.StatusPending,
	}, nil
}

type fakeCallLog struct {
	entries []calllog.CallEntry
}

func (f *fakeCallLog) AppendCall(ctx context.Context, e calllog.CallEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

// ----- fixture -----

var (
	clinicID     = uuid.New()
	cardiologyID = uuid.New()
	dermID       = uuid.New()
	drJohnsonID  = uuid.New()
	drChenID     = uuid.New()
	drPatelID    = uuid.New()
)

func testFixture() (*fakeDirectory, *fakeBookings, *fakeCallLog) {
	dir := &fakeDirectory{
		departments: []directory.Department{
			{ID: cardiologyID, ClinicID: clinicID, Name: "Cardiology"},
			{ID: dermID, ClinicID: clinicID, Name: "Dermatology"},
		},
		doctors: map[uuid.UUID][]directory.Doctor{
			cardiologyID: {
				{ID: drJohnsonID, ClinicID: clinicID, DepartmentID: cardiologyID, Name: "Sarah Johnson"},
			},
			dermID: {
				{ID: drChenID, ClinicID: clinicID, DepartmentID: dermID, Name: "Michael Chen"},
				{ID: drPatelID, ClinicID: clinicID, DepartmentID: dermID, Name: "Priya Patel"},
			},
		},
	}
	book := &fakeBookings{slots: []string{"09:00", "14:00", "14:30"}}
	logs := &fakeCallLog{}
	return dir, book, logs
}

func testEngine(dir *fakeDirectory, book *fakeBookings, logs *fakeCallLog) *Engine {
	return NewEngine(EngineConfig{
		Directory: dir,
		Bookings:  book,
		CallLogs:  logs,
		Now:       func() time.Time { return fixedNow },
	})
}

func turnInput(transcript string) TurnInput {
	return TurnInput{
		CallSID:     "CA100",
		ClinicID:    clinicID,
		ClinicName:  "City Medical Center",
		CallerPhone: "+15551234567",
		Transcript:  transcript,
	}
}

// run plays a transcript sequence from a fresh call and returns the last
// reply plus the final state.
func run(t *testing.T, e *Engine, transcripts ...string) (Reply, State) {
	t.Helper()
	st := NewState()
	var reply Reply
	for _, tr := range transcripts {
		reply, st = e.Turn(context.Background(), turnInput(tr), st)
	}
	return reply, st
}

// ----- tests -----

func TestGreetingIgnoresInputAndAsksForName(t *testing.T) {
	e := testEngine(testFixture())
	reply, st := run(t, e, "blah blah")

	assert.Equal(t, StepName, st.Step)
	assert.Equal(t, ActionGather, reply.Action)
	assert.Contains(t, reply.Text, "City Medical Center")
	assert.Contains(t, reply.Text, "your name")
}

func TestTransferKeywordOverridesAnyStep(t *testing.T) {
	e := testEngine(testFixture())
	// Reach the department step, then demand a human.
	reply, st := run(t, e, "", "John Smith", "let me talk to a human")

	assert.Equal(t, StepTransfer, st.Step)
	assert.Equal(t, ActionTransfer, reply.Action)
}

func TestTransferKeywordAtDepartmentStep(t *testing.T) {
	e := testEngine(testFixture())
	reply, st := run(t, e, "", "John Smith", "transfer")

	assert.Equal(t, StepTransfer, st.Step)
	assert.Equal(t, ActionTransfer, reply.Action)
}

func TestNameTooShortRetriesThenTransfers(t *testing.T) {
	e := testEngine(testFixture())

	// Two failures reprompt.
	reply, st := run(t, e, "", "x", "y")
	assert.Equal(t, StepName, st.Step)
	assert.Equal(t, 2, st.Attempts)
	assert.Equal(t, ActionGather, reply.Action)

	// The third failure transfers.
	reply, st = run(t, e, "", "x", "y", "z")
	assert.Equal(t, StepTransfer, st.Step)
	assert.Equal(t, ActionTransfer, reply.Action)
}

func TestNameExtractedAndDepartmentsListed(t *testing.T) {
	e := testEngine(testFixture())
	reply, st := run(t, e, "", "my name is John Smith")

	assert.Equal(t, StepDepartment, st.Step)
	assert.Equal(t, "John Smith", st.Slots.PatientName)
	assert.Contains(t, reply.Text, "Cardiology")
	assert.Contains(t, reply.Text, "Dermatology")
}

func TestNoDepartmentsTransfersImmediately(t *testing.T) {
	dir, book, logs := testFixture()
	dir.departments = nil
	e := testEngine(dir, book, logs)

	reply, st := run(t, e, "", "John Smith")
	assert.Equal(t, StepTransfer, st.Step)
	assert.Equal(t, ActionTransfer, reply.Action)
}

func TestDirectoryErrorDegradesToTransfer(t *testing.T) {
	dir, book, logs := testFixture()
	dir.err = errors.New("connection refused")
	e := testEngine(dir, book, logs)

	reply, st := run(t, e, "", "John Smith")
	assert.Equal(t, StepTransfer, st.Step)
	assert.Equal(t, ActionTransfer, reply.Action)
	// The raw fault never reaches the caller.
	assert.NotContains(t, reply.Text, "connection refused")
}

func TestDepartmentRetriesThenTransfers(t *testing.T) {
	e := testEngine(testFixture())

	reply, st := run(t, e, "", "John Smith", "basket weaving", "underwater yoga")
	assert.Equal(t, StepDepartment, st.Step)
	assert.Equal(t, 2, st.Attempts)
	assert.Contains(t, reply.Text, "Cardiology")

	_, st = run(t, e, "", "John Smith", "basket weaving", "underwater yoga", "juggling")
	assert.Equal(t, StepTransfer, st.Step)
}

func TestSingleDoctorAutoSelectSkipsDoctorStep(t *testing.T) {
	e := testEngine(testFixture())
	reply, st := run(t, e, "", "John Smith", "Cardiology")

	assert.Equal(t, StepDate, st.Step)
	assert.Equal(t, "Sarah Johnson", st.Slots.DoctorName)
	assert.Equal(t, drJohnsonID.String(), st.Slots.DoctorID)
	assert.Contains(t, reply.Text, "Dr. Sarah Johnson")
}

func TestMultipleDoctorsPromptsChoice(t *testing.T) {
	e := testEngine(testFixture())
	reply, st := run(t, e, "", "John Smith", "Dermatology")

	assert.Equal(t, StepDoctor, st.Step)
	assert.Len(t, st.Slots.Doctors, 2)
	assert.Contains(t, reply.Text, "Dr. Michael Chen")
	assert.Contains(t, reply.Text, "Dr. Priya Patel")
}

func TestEmptyDepartmentLoopsBackWithAttemptsReset(t *testing.T) {
	dir, book, logs := testFixture()
	dir.doctors[cardiologyID] = nil
	e := testEngine(dir, book, logs)

	reply, st := run(t, e, "", "John Smith", "Cardiology")
	assert.Equal(t, StepDepartment, st.Step)
	assert.Equal(t, 0, st.Attempts)
	assert.Equal(t, ActionGather, reply.Action)
	assert.Contains(t, reply.Text, "different department")
}

func TestDoctorMatchAdvancesToDate(t *testing.T) {
	e := testEngine(testFixture())
	reply, st := run(t, e, "", "John Smith", "Dermatology", "doctor patel")

	assert.Equal(t, StepDate, st.Step)
	assert.Equal(t, "Priya Patel", st.Slots.DoctorName)
	assert.Contains(t, reply.Text, "What date")
}

func TestDoctorRetriesThenTransfers(t *testing.T) {
	e := testEngine(testFixture())
	_, st := run(t, e, "", "John Smith", "Dermatology", "mumble", "mumble", "mumble")
	assert.Equal(t, StepTransfer, st.Step)
}

func TestDateUnparseableRetriesThenTransfers(t *testing.T) {
	e := testEngine(testFixture())

	_, st := run(t, e, "", "John Smith", "Cardiology", "whenever", "dunno")
	assert.Equal(t, StepDate, st.Step)
	assert.Equal(t, 2, st.Attempts)

	_, st = run(t, e, "", "John Smith", "Cardiology", "whenever", "dunno", "eh")
	assert.Equal(t, StepTransfer, st.Step)
}

func TestPastDateRepromptsWithoutConsumingAttempt(t *testing.T) {
	e := testEngine(testFixture())
	reply, st := run(t, e, "", "John Smith", "Cardiology", "1/15/2020")

	assert.Equal(t, StepDate, st.Step)
	assert.Equal(t, 0, st.Attempts)
	assert.Contains(t, reply.Text, "already passed")
}

func TestFarFutureDateRepromptsWithoutConsumingAttempt(t *testing.T) {
	e := testEngine(testFixture())
	reply, st := run(t, e, "", "John Smith", "Cardiology", "12/24/2027")

	assert.Equal(t, StepDate, st.Step)
	assert.Equal(t, 0, st.Attempts)
	assert.Contains(t, reply.Text, "3 months")
}

func TestNoSlotsLoopsBackToDate(t *testing.T) {
	dir, book, logs := testFixture()
	book.slots = nil
	e := testEngine(dir, book, logs)

	reply, st := run(t, e, "", "John Smith", "Cardiology", "next monday")
	assert.Equal(t, StepDate, st.Step)
	assert.Equal(t, 0, st.Attempts)
	assert.Contains(t, reply.Text, "different date")
}

func TestSlotListCapsAtFiveWithRemainder(t *testing.T) {
	dir, book, logs := testFixture()
	book.slots = []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30", "12:00"}
	e := testEngine(dir, book, logs)

	reply, st := run(t, e, "", "John Smith", "Cardiology", "next monday")
	assert.Equal(t, StepTime, st.Step)
	assert.Len(t, st.Slots.TimeSlots, 7)
	assert.Contains(t, reply.Text, "11:00")
	assert.NotContains(t, reply.Text, "12:00")
	assert.Contains(t, reply.Text, "and 2 more times")
}

func TestTimeMatchMovesToConfirmation(t *testing.T) {
	e := testEngine(testFixture())
	reply, st := run(t, e, "", "John Smith", "Cardiology", "next monday", "2pm")

	assert.Equal(t, StepConfirmation, st.Step)
	assert.Equal(t, "14:00", st.Slots.Time)
	for _, want := range []string{"John Smith", "Dr. Sarah Johnson", "Cardiology", "14:00"} {
		assert.Contains(t, reply.Text, want)
	}
}

func TestTimeRetriesThenTransfers(t *testing.T) {
	e := testEngine(testFixture())
	_, st := run(t, e, "", "John Smith", "Cardiology", "next monday",
		"hmm", "uh", "err")
	assert.Equal(t, StepTransfer, st.Step)
}

func TestConfirmationYesBooksAppointment(t *testing.T) {
	dir, book, logs := testFixture()
	e := testEngine(dir, book, logs)

	reply, st := run(t, e, "", "John Smith", "Cardiology", "next monday", "2pm", "yes please")

	assert.Equal(t, StepComplete, st.Step)
	assert.Equal(t, ActionGather, reply.Action)
	assert.Contains(t, reply.Text, "successfully booked")

	require.Len(t, book.created, 1)
	created := book.created[0]
	assert.Equal(t, "John Smith", created.PatientName)
	assert.Equal(t, drJohnsonID, created.DoctorID)
	assert.Equal(t, "2026-09-07", created.Date)
	assert.Equal(t, "14:00", created.Time)
	assert.Equal(t, "+15551234567", created.PhoneNumber)
	assert.Equal(t, "Booked via AI voice agent", created.Notes)

	require.Len(t, logs.entries, 1)
	assert.True(t, logs.entries[0].AppointmentBooked)
	assert.Contains(t, logs.entries[0].Summary, "John Smith")
	assert.Contains(t, logs.entries[0].Summary, "Dr. Sarah Johnson")
}

func TestConfirmationDeclineReturnsToDate(t *testing.T) {
	e := testEngine(testFixture())
	reply, st := run(t, e, "", "John Smith", "Cardiology", "next monday", "2pm", "no, change it")

	assert.Equal(t, StepDate, st.Step)
	assert.Equal(t, 0, st.Attempts)
	assert.Equal(t, ActionGather, reply.Action)
}

func TestConfirmationGibberishThresholdIsTwo(t *testing.T) {
	e := testEngine(testFixture())

	reply, st := run(t, e, "", "John Smith", "Cardiology", "next monday", "2pm", "banana")
	assert.Equal(t, StepConfirmation, st.Step)
	assert.Equal(t, 1, st.Attempts)
	assert.Equal(t, ActionGather, reply.Action)

	reply, st = run(t, e, "", "John Smith", "Cardiology", "next monday", "2pm", "banana", "potato")
	assert.Equal(t, StepTransfer, st.Step)
	assert.Equal(t, ActionTransfer, reply.Action)
}

func TestBookingConflictTransfersWithoutRetry(t *testing.T) {
	dir, book, logs := testFixture()
	book.createErr = appointments.ErrSlotTaken
	e := testEngine(dir, book, logs)

	reply, st := run(t, e, "", "John Smith", "Cardiology", "next monday", "2pm", "yes")

	assert.Equal(t, StepTransfer, st.Step)
	assert.Equal(t, ActionTransfer, reply.Action)
	assert.Empty(t, book.created)
	assert.Empty(t, logs.entries)
}

func TestCompleteClosingKeywordHangsUp(t *testing.T) {
	e := testEngine(testFixture())
	reply, st := run(t, e, "", "John Smith", "Cardiology", "next monday", "2pm", "yes", "no, that's all")

	assert.Equal(t, StepComplete, st.Step)
	assert.Equal(t, ActionHangup, reply.Action)
	assert.Contains(t, reply.Text, "Have a great day")
}

func TestCompleteOtherRequestTransfers(t *testing.T) {
	e := testEngine(testFixture())
	reply, st := run(t, e, "", "John Smith", "Cardiology", "next monday", "2pm", "yes",
		"actually I also need a prescription refill")

	assert.Equal(t, StepTransfer, st.Step)
	assert.Equal(t, ActionTransfer, reply.Action)
}

func TestEndToEndHappyPath(t *testing.T) {
	dir, book, logs := testFixture()
	e := testEngine(dir, book, logs)

	st := NewState()
	var reply Reply
	for _, tr := range []string{"", "John Smith", "Cardiology", "next Monday", "2pm", "yes"} {
		reply, st = e.Turn(context.Background(), turnInput(tr), st)
	}

	assert.Equal(t, StepComplete, st.Step)
	assert.True(t, strings.Contains(reply.Text, "successfully booked"))
	require.Len(t, book.created, 1)
	assert.Equal(t, "2026-09-07", book.created[0].Date)
	assert.Equal(t, "14:00", book.created[0].Time)
	require.Len(t, logs.entries, 1)
}
