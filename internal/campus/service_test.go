package campus

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type world struct {
	svc     *Service
	store   *MemoryStore
	college College
	other   College
}

func newWorld(t *testing.T) *world {
	t.Helper()
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	college, err := svc.CreateCollege(ctx, "north", "North College")
	require.NoError(t, err)
	other, err := svc.CreateCollege(ctx, "south", "South College")
	require.NoError(t, err)
	return &world{svc: svc, store: store, college: college, other: other}
}

func (w *world) student(t *testing.T, college College, name string) Student {
	t.Helper()
	roll := fmt.Sprintf("%s-%s", college.Code, name)
	st, err := w.svc.CreateStudent(context.Background(), college.ID, name, roll+"@example.edu", roll)
	require.NoError(t, err)
	return st
}

func (w *world) event(t *testing.T, college College, title string, capacity *int) Event {
	t.Helper()
	start := time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)
	ev, err := w.svc.CreateEvent(context.Background(), NewEvent{
		CollegeID: college.ID,
		Code:      uuid.NewString()[:8],
		Title:     title,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Capacity:  capacity,
	})
	require.NoError(t, err)
	return ev
}

func (w *world) register(t *testing.T, st Student, ev Event) Registration {
	t.Helper()
	reg, _, err := w.svc.Register(context.Background(), st.ID, ev.ID)
	require.NoError(t, err)
	return reg
}

func capacity(n int) *int { return &n }
