package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/attendance"
)

// Set ATTENDANCE_TEST_POSTGRES_URL to a disposable database to run these.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("ATTENDANCE_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("ATTENDANCE_TEST_POSTGRES_URL not set")
	}
	store, err := New(context.Background(), DefaultConfig(url))
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Save(context.Background(), attendance.EmptySnapshot()))
	return store
}

func TestPostgres_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	reg := attendance.NewRegistry(store, nil)
	_, err := reg.AddPerson(ctx, attendance.Student, attendance.Attributes{"name": "Ana"})
	require.NoError(t, err)
	_, err = reg.AddEvent(ctx, attendance.Attributes{"title": "Open day"})
	require.NoError(t, err)
	_, err = reg.Register(ctx, attendance.Student, 1, "2024-01-10", attendance.Justified)
	require.NoError(t, err)
	_, err = reg.Register(ctx, attendance.Student, 1, "2024-01-11", attendance.Unjustified)
	require.NoError(t, err)

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Students, 1)
	assert.Equal(t, "Ana", snap.Students[0].Attributes["name"])
	require.Len(t, snap.Events, 1)
	require.Len(t, snap.Attendance, 2)
	assert.Equal(t, "2024-01-10", snap.Attendance[0].Date)
	assert.Equal(t, 2, snap.Attendance[1].ID)
}

func TestPostgres_EmptyLoad(t *testing.T) {
	snap, err := newTestStore(t).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, attendance.EmptySnapshot(), snap)
}
