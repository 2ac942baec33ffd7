package attendance_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/attendance/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestRegistry(t *testing.T) (*attendance.Registry, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return attendance.NewRegistry(mem, nil), mem
}

func addStudent(t *testing.T, r *attendance.Registry, name string) attendance.Person {
	t.Helper()
	p, err := r.AddPerson(context.Background(), attendance.Student, attendance.Attributes{"name": name})
	require.NoError(t, err)
	return p
}

func addTeacher(t *testing.T, r *attendance.Registry, name string) attendance.Person {
	t.Helper()
	p, err := r.AddPerson(context.Background(), attendance.Teacher, attendance.Attributes{"name": name})
	require.NoError(t, err)
	return p
}

// =============================================================================
// REGISTER
// =============================================================================

func TestRegister_StudentScenario(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t)

	ana := addStudent(t, r, "Ana")
	require.Equal(t, 1, ana.ID)

	first, err := r.Register(ctx, attendance.Student, 1, "2024-01-10", attendance.Justified)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ID)
	assert.Len(t, r.ListAttendance(ctx), 1)

	second, err := r.Register(ctx, attendance.Student, 1, "2024-01-11", attendance.Unjustified)
	require.NoError(t, err)
	assert.Equal(t, 2, second.ID)
	assert.Len(t, r.ListAttendance(ctx), 2)

	history, err := r.History(ctx, attendance.Student, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2024-01-10", history[0].Date)
	assert.Equal(t, "2024-01-11", history[1].Date)

	sum := r.Statistics(ctx)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 1, sum.Justified)
	assert.Equal(t, 1, sum.Unjustified)
	assert.Equal(t, "50", sum.PctJustified.String())
	assert.Equal(t, "50", sum.PctUnjustified.String())
}

func TestRegister_RecordMatchesInput(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t)
	addTeacher(t, r, "Luis")

	rec, err := r.Register(ctx, attendance.Teacher, 1, "2024-02-01", attendance.Unjustified)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.PersonID)
	assert.Equal(t, attendance.Teacher, rec.PersonType)
	assert.Equal(t, "2024-02-01", rec.Date)
	assert.Equal(t, attendance.Unjustified, rec.Status)

	history, err := r.History(ctx, attendance.Teacher, 1)
	require.NoError(t, err)
	assert.Equal(t, []attendance.AttendanceRecord{rec}, history)
}

func TestRegister_IneligibleTypeDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	r, mem := newTestRegistry(t)
	_, err := r.AddPerson(ctx, attendance.Tutor, attendance.Attributes{"name": "Eva"})
	require.NoError(t, err)
	savesBefore := mem.Saves()

	for _, pt := range []attendance.PersonType{attendance.Tutor, attendance.Administrator, "Janitor", ""} {
		t.Run(string(pt), func(t *testing.T) {
			_, err := r.Register(ctx, pt, 1, "2024-01-10", attendance.Justified)
			require.Error(t, err)
			assert.ErrorIs(t, err, attendance.ErrInvalidArgument)
			assert.True(t, attendance.IsClientError(err))
		})
	}

	assert.Empty(t, r.ListAttendance(ctx))
	assert.Equal(t, savesBefore, mem.Saves())
}

func TestRegister_UnknownPersonDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	r, mem := newTestRegistry(t)
	addStudent(t, r, "Ana")
	savesBefore := mem.Saves()

	_, err := r.Register(ctx, attendance.Teacher, 999, "2024-01-10", attendance.Justified)
	require.Error(t, err)
	assert.True(t, attendance.IsNotFound(err))

	var nf *attendance.PersonNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, attendance.Teacher, nf.Type)
	assert.Equal(t, 999, nf.ID)

	// Student 1 exists but teacher 1 does not: ids never cross categories.
	_, err = r.Register(ctx, attendance.Teacher, 1, "2024-01-10", attendance.Justified)
	assert.ErrorIs(t, err, attendance.ErrNotFound)

	assert.Empty(t, r.ListAttendance(ctx))
	assert.Equal(t, savesBefore, mem.Saves())
}

func TestRegister_WriteFaultIsSurfaced(t *testing.T) {
	ctx := context.Background()
	r, mem := newTestRegistry(t)
	addStudent(t, r, "Ana")

	mem.FailSave = errors.New("disk full")
	rec, err := r.Register(ctx, attendance.Student, 1, "2024-01-10", attendance.Justified)
	require.Error(t, err)
	assert.ErrorIs(t, err, attendance.ErrStorageWrite)
	assert.True(t, attendance.IsStorageFault(err))
	assert.Equal(t, 1, rec.PersonID, "attempted record is returned")

	mem.FailSave = nil
	assert.Empty(t, r.ListAttendance(ctx))
}

func TestRegister_ReadFaultAbortsMutation(t *testing.T) {
	ctx := context.Background()
	r, mem := newTestRegistry(t)
	addStudent(t, r, "Ana")
	savesBefore := mem.Saves()

	mem.FailLoad = errors.New("corrupt document")
	_, err := r.Register(ctx, attendance.Student, 1, "2024-01-10", attendance.Justified)
	assert.ErrorIs(t, err, attendance.ErrStorageRead)
	assert.Equal(t, savesBefore, mem.Saves())

	// Reads mask the fault with the empty default.
	assert.Empty(t, r.ListAttendance(ctx))
	assert.Equal(t, 0, r.Statistics(ctx).Total)

	mem.FailLoad = nil
	students, err := r.ListPeople(ctx, attendance.Student)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestRegister_ConcurrentNoLostUpdate(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t)

	const n = 20
	for i := 0; i < n; i++ {
		addStudent(t, r, fmt.Sprintf("student-%d", i))
		addTeacher(t, r, fmt.Sprintf("teacher-%d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 1; i <= n; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			_, err := r.Register(ctx, attendance.Student, id, "2024-03-01", attendance.Justified)
			errs <- err
		}(i)
		go func(id int) {
			defer wg.Done()
			_, err := r.Register(ctx, attendance.Teacher, id, "2024-03-01", attendance.Unjustified)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	ledger := r.ListAttendance(ctx)
	require.Len(t, ledger, 2*n)
	for i, rec := range ledger {
		assert.Equal(t, i+1, rec.ID, "ledger ids are dense and ordered")
	}
	for i := 1; i <= n; i++ {
		h, err := r.History(ctx, attendance.Student, i)
		require.NoError(t, err)
		assert.Len(t, h, 1)
	}
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistory_UnknownPersonVersusEmpty(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t)
	addStudent(t, r, "Ana")

	history, err := r.History(ctx, attendance.Student, 1)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)

	_, err = r.History(ctx, attendance.Student, 2)
	assert.ErrorIs(t, err, attendance.ErrNotFound)

	_, err = r.History(ctx, attendance.Tutor, 1)
	assert.ErrorIs(t, err, attendance.ErrInvalidArgument)
}

func TestHistory_FiltersOnTypeAndID(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t)
	addStudent(t, r, "Ana")
	addStudent(t, r, "Ben")
	addTeacher(t, r, "Luis")

	_, err := r.Register(ctx, attendance.Student, 1, "d1", attendance.Justified)
	require.NoError(t, err)
	_, err = r.Register(ctx, attendance.Teacher, 1, "d2", attendance.Justified)
	require.NoError(t, err)
	_, err = r.Register(ctx, attendance.Student, 2, "d3", attendance.Justified)
	require.NoError(t, err)
	_, err = r.Register(ctx, attendance.Student, 1, "d4", attendance.Unjustified)
	require.NoError(t, err)

	history, err := r.History(ctx, attendance.Student, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "d1", history[0].Date)
	assert.Equal(t, "d4", history[1].Date)

	history, err = r.History(ctx, attendance.Teacher, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "d2", history[0].Date)
}
