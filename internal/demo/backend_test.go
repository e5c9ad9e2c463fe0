package demo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikhlas911/medizap-ai/internal/appointments"
)

func TestBackendSeedIsDeterministic(t *testing.T) {
	a := NewBackend("+15550001111", 42)
	b := NewBackend("+15550001111", 42)

	ctx := context.Background()
	deptsA, err := a.ActiveDepartments(ctx, a.clinic.ID)
	require.NoError(t, err)
	deptsB, err := b.ActiveDepartments(ctx, b.clinic.ID)
	require.NoError(t, err)
	require.Len(t, deptsA, 4)

	for i := range deptsA {
		docsA, err := a.ActiveDoctors(ctx, a.clinic.ID, deptsA[i].ID)
		require.NoError(t, err)
		docsB, err := b.ActiveDoctors(ctx, b.clinic.ID, deptsB[i].ID)
		require.NoError(t, err)
		require.Len(t, docsA, len(docsB))
		for j := range docsA {
			assert.Equal(t, docsA[j].Name, docsB[j].Name)
		}
	}
}

func TestBackendResolvesAnyNumber(t *testing.T) {
	b := NewBackend("+15550001111", 1)
	clinic, err := b.ClinicByNumber(context.Background(), "+19998887777")
	require.NoError(t, err)
	assert.Equal(t, "Medizap Demo Clinic", clinic.Name)
}

func TestBackendSlotsRespectWeekdays(t *testing.T) {
	b := NewBackend("+15550001111", 1)
	ctx := context.Background()

	depts, err := b.ActiveDepartments(ctx, b.clinic.ID)
	require.NoError(t, err)
	docs, err := b.ActiveDoctors(ctx, b.clinic.ID, depts[0].ID)
	require.NoError(t, err)
	doc := docs[0]

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	slots, err := b.AvailableSlots(ctx, doc.ID, monday)
	require.NoError(t, err)
	assert.Len(t, slots, len(demoSlots))

	sunday := time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)
	slots, err = b.AvailableSlots(ctx, doc.ID, sunday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestBackendBookingRemovesSlot(t *testing.T) {
	b := NewBackend("+15550001111", 1)
	ctx := context.Background()

	depts, _ := b.ActiveDepartments(ctx, b.clinic.ID)
	docs, _ := b.ActiveDoctors(ctx, b.clinic.ID, depts[0].ID)
	doc := docs[0]

	_, err := b.Create(ctx, appointments.CreateParams{
		ClinicID:     b.clinic.ID,
		DepartmentID: depts[0].ID,
		DoctorID:     doc.ID,
		PatientName:  "John Smith",
		Date:         "2026-09-07",
		Time:         "09:00",
	})
	require.NoError(t, err)

	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	slots, err := b.AvailableSlots(ctx, doc.ID, monday)
	require.NoError(t, err)
	assert.NotContains(t, slots, "09:00")
	assert.Contains(t, slots, "09:30")
}

func TestBackendConcurrentBookingSingleWinner(t *testing.T) {
	b := NewBackend("+15550001111", 1)
	ctx := context.Background()

	depts, _ := b.ActiveDepartments(ctx, b.clinic.ID)
	docs, _ := b.ActiveDoctors(ctx, b.clinic.ID, depts[0].ID)
	doc := docs[0]

	params := appointments.CreateParams{
		ClinicID:     b.clinic.ID,
		DepartmentID: depts[0].ID,
		DoctorID:     doc.ID,
		Date:         "2026-09-07",
		Time:         "14:00",
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = b.Create(ctx, params)
		}(i)
	}
	wg.Wait()

	var conflicts, successes int
	for _, err := range errs {
		switch err {
		case nil:
			successes++
		case appointments.ErrSlotTaken:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}
