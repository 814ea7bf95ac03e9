package campus

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 33.33, round2(100.0/3))
	assert.Equal(t, 66.67, round2(200.0/3))
	assert.Equal(t, 4.67, round2(14.0/3))
	assert.Equal(t, 0.0, attendancePct(0, 0))
	assert.Equal(t, 50.0, attendancePct(5, 10))
}

func TestEventPopularity(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	big := w.event(t, w.college, "Career Fair", nil)
	empty := w.event(t, w.college, "Empty Hall", nil)
	w.event(t, w.other, "Elsewhere", nil)

	for i := 0; i < 10; i++ {
		st := w.student(t, w.college, fmt.Sprintf("s%02d", i))
		reg := w.register(t, st, big)
		if i < 5 {
			att, _, err := w.svc.CheckIn(ctx, ByRegistration(reg.ID))
			require.NoError(t, err)
			if i == 4 {
				_, _, err = w.svc.SetAttendance(ctx, att.ID, false)
				require.NoError(t, err)
			}
		}
		if i < 3 {
			rating := []int{4, 5, 5}[i]
			_, _, err := w.svc.SubmitFeedback(ctx, ByRegistration(reg.ID), rating, "")
			require.NoError(t, err)
		}
	}

	rows, err := w.svc.EventPopularity(ctx, &w.college.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, EventReport{
		ID: big.ID, Title: big.Title, Code: big.Code,
		Registrations: 10, Attendance: 5, AttendancePct: 50, AvgRating: 4.67,
	}, rows[0])
	assert.Equal(t, EventReport{
		ID: empty.ID, Title: empty.Title, Code: empty.Code,
	}, rows[1])

	all, err := w.svc.EventPopularity(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := w.svc.EventPopularity(ctx, ptr(uuid.New()))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPopularityCountsAttendanceRowsRegardlessOfPresent(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	st := w.student(t, w.college, "alice")
	ev := w.event(t, w.college, "Talk", nil)
	reg := w.register(t, st, ev)
	att, _, err := w.svc.CheckIn(ctx, ByRegistration(reg.ID))
	require.NoError(t, err)
	_, _, err = w.svc.SetAttendance(ctx, att.ID, false)
	require.NoError(t, err)

	rows, err := w.svc.EventPopularity(ctx, &w.college.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rows[0].Attendance)
	assert.Equal(t, 100.0, rows[0].AttendancePct)

	parts, err := w.svc.StudentParticipation(ctx, ParticipationFilter{StudentID: &st.ID})
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Zero(t, parts[0].AttendedEvents)
}

func TestPopularityTiesKeepStoreOrder(t *testing.T) {
	rows := buildEventReports([]EventAggregate{
		{Title: "A", Registrations: 1},
		{Title: "B", Registrations: 3},
		{Title: "C", Registrations: 1},
		{Title: "D", Registrations: 3},
	})
	var titles []string
	for _, r := range rows {
		titles = append(titles, r.Title)
	}
	assert.Equal(t, []string{"B", "D", "A", "C"}, titles)
}

func TestStudentParticipation(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	alice := w.student(t, w.college, "alice")
	bob := w.student(t, w.college, "bob")
	w.student(t, w.other, "olga")

	for _, title := range []string{"One", "Two", "Three"} {
		ev := w.event(t, w.college, title, nil)
		reg := w.register(t, alice, ev)
		w.register(t, bob, ev)
		if title != "Three" {
			_, _, err := w.svc.CheckIn(ctx, ByRegistration(reg.ID))
			require.NoError(t, err)
		}
	}

	rows, err := w.svc.StudentParticipation(ctx, ParticipationFilter{CollegeID: &w.college.ID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, alice.ID, rows[0].ID)
	assert.Equal(t, 2, rows[0].AttendedEvents)
	assert.Equal(t, bob.ID, rows[1].ID)
	assert.Zero(t, rows[1].AttendedEvents)

	one, err := w.svc.StudentParticipation(ctx, ParticipationFilter{StudentID: &alice.ID})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "alice", one[0].Name)

	everyone, err := w.svc.StudentParticipation(ctx, ParticipationFilter{})
	require.NoError(t, err)
	assert.Len(t, everyone, 3)

	mismatch, err := w.svc.StudentParticipation(ctx, ParticipationFilter{CollegeID: &w.other.ID, StudentID: &alice.ID})
	require.NoError(t, err)
	assert.NotNil(t, mismatch)
	assert.Empty(t, mismatch)
}

func ptr[T any](v T) *T { return &v }
