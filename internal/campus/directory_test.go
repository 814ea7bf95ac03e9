package campus

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCollegeValidation(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	for _, code := range []string{"", "North", "has space", "-lead", "trail_", "a--b"} {
		_, err := w.svc.CreateCollege(ctx, code, "Name")
		assert.ErrorIs(t, err, ErrInvalidInput, code)
	}
	_, err := w.svc.CreateCollege(ctx, "east", "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = w.svc.CreateCollege(ctx, "north", "Duplicate")
	assert.ErrorIs(t, err, ErrConflict)

	got, err := w.svc.GetCollege(ctx, w.college.ID)
	require.NoError(t, err)
	assert.Equal(t, w.college, got)
	_, err = w.svc.GetCollege(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCollegesSearch(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	all, err := w.svc.ListColleges(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "North College", all[0].Name)

	some, err := w.svc.ListColleges(ctx, " SOUTH ")
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, w.other.ID, some[0].ID)
}

func TestCreateStudent(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	st, err := w.svc.CreateStudent(ctx, w.college.ID, " Alice ", "alice@north.edu", "N1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", st.Name)

	_, err = w.svc.CreateStudent(ctx, w.college.ID, "Alias", "alice@north.edu", "N2")
	assert.ErrorIs(t, err, ErrConflict)
	_, err = w.svc.CreateStudent(ctx, w.college.ID, "Other", "other@north.edu", "N1")
	assert.ErrorIs(t, err, ErrConflict)

	// the same email and roll number are fine in another college
	_, err = w.svc.CreateStudent(ctx, w.other.ID, "Alice", "alice@north.edu", "N1")
	require.NoError(t, err)

	for _, email := range []string{"", "alice", "Alice <alice@north.edu>"} {
		_, err = w.svc.CreateStudent(ctx, w.college.ID, "X", email, "X1")
		assert.ErrorIs(t, err, ErrInvalidInput, email)
	}
	_, err = w.svc.CreateStudent(ctx, w.college.ID, "", "x@north.edu", "X1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = w.svc.CreateStudent(ctx, w.college.ID, "X", "x@north.edu", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = w.svc.CreateStudent(ctx, uuid.New(), "X", "x@north.edu", "X1")
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := w.svc.ListStudents(ctx, StudentFilter{CollegeID: &w.college.ID, Search: "N1"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, st.ID, found[0].ID)

	everyone, err := w.svc.ListStudents(ctx, StudentFilter{Search: "alice"})
	require.NoError(t, err)
	assert.Len(t, everyone, 2)
}

func TestCreateEvent(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800))

	ev, err := w.svc.CreateEvent(ctx, NewEvent{
		CollegeID: w.college.ID, Code: "tech-fest", Title: "Tech Fest",
		StartTime: start, EndTime: start, Capacity: capacity(0),
	})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ev.StartTime.Location())

	got, err := w.svc.GetEvent(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, got.ID)
	require.NotNil(t, got.Capacity)
	assert.Zero(t, *got.Capacity)

	bad := []NewEvent{
		{CollegeID: w.college.ID, Code: "Bad Code", Title: "T", StartTime: start, EndTime: start},
		{CollegeID: w.college.ID, Code: "ok", Title: "", StartTime: start, EndTime: start},
		{CollegeID: w.college.ID, Code: "ok", Title: "T", EndTime: start},
		{CollegeID: w.college.ID, Code: "ok", Title: "T", StartTime: start, EndTime: start.Add(-time.Minute)},
		{CollegeID: w.college.ID, Code: "ok", Title: "T", StartTime: start, EndTime: start, Capacity: capacity(-1)},
	}
	for i, in := range bad {
		_, err := w.svc.CreateEvent(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidInput, i)
	}

	_, err = w.svc.CreateEvent(ctx, NewEvent{CollegeID: w.college.ID, Code: "tech-fest", Title: "Again", StartTime: start, EndTime: start})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = w.svc.CreateEvent(ctx, NewEvent{CollegeID: w.other.ID, Code: "tech-fest", Title: "South Fest", StartTime: start, EndTime: start})
	require.NoError(t, err)
	_, err = w.svc.CreateEvent(ctx, NewEvent{CollegeID: uuid.New(), Code: "x", Title: "X", StartTime: start, EndTime: start})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = w.svc.GetEvent(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	events, err := w.svc.ListEvents(ctx, EventFilter{CollegeID: &w.college.ID})
	require.NoError(t, err)
	assert.Len(t, events, 1)
	events, err = w.svc.ListEvents(ctx, EventFilter{Search: "fest"})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}
