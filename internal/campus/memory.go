package campus

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for development and tests. Units of work
// run one at a time against a private copy of the state, which replaces the
// shared state only when the callback succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	colleges      map[uuid.UUID]College
	students      map[uuid.UUID]Student
	events        map[uuid.UUID]Event
	registrations map[uuid.UUID]Registration
	attendance    map[uuid.UUID]Attendance // keyed by registration id
	feedback      map[uuid.UUID]Feedback   // keyed by registration id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memState{
		colleges:      map[uuid.UUID]College{},
		students:      map[uuid.UUID]Student{},
		events:        map[uuid.UUID]Event{},
		registrations: map[uuid.UUID]Registration{},
		attendance:    map[uuid.UUID]Attendance{},
		feedback:      map[uuid.UUID]Feedback{},
	}}
}

func (s *memState) clone() *memState {
	return &memState{
		colleges:      maps.Clone(s.colleges),
		students:      maps.Clone(s.students),
		events:        maps.Clone(s.events),
		registrations: maps.Clone(s.registrations),
		attendance:    maps.Clone(s.attendance),
		feedback:      maps.Clone(s.feedback),
	}
}

// WithTx runs fn with exclusive access to the store.
func (m *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(ctx, &memTx{s: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

type memTx struct {
	s *memState
}

func conflict(msg string) error {
	return newError(CodeConflict, msg)
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (t *memTx) InsertCollege(_ context.Context, c College) error {
	for _, existing := range t.s.colleges {
		if existing.Code == c.Code {
			return conflict("college code already exists")
		}
	}
	t.s.colleges[c.ID] = c
	return nil
}

func (t *memTx) GetCollege(_ context.Context, id uuid.UUID) (*College, error) {
	c, ok := t.s.colleges[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (t *memTx) ListColleges(_ context.Context, search string) ([]College, error) {
	out := []College{}
	for _, c := range t.s.colleges {
		if search == "" || contains(c.Name, search) || contains(c.Code, search) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b College) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return strings.Compare(a.Code, b.Code)
	})
	return out, nil
}

func (t *memTx) InsertStudent(_ context.Context, st Student) error {
	for _, existing := range t.s.students {
		if existing.CollegeID != st.CollegeID {
			continue
		}
		if existing.Email == st.Email {
			return conflict("email already registered in this college")
		}
		if existing.RollNumber == st.RollNumber {
			return conflict("roll number already registered in this college")
		}
	}
	t.s.students[st.ID] = st
	return nil
}

func (t *memTx) GetStudent(_ context.Context, id uuid.UUID) (*Student, error) {
	st, ok := t.s.students[id]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (t *memTx) ListStudents(_ context.Context, f StudentFilter) ([]Student, error) {
	out := []Student{}
	for _, st := range t.s.students {
		if f.CollegeID != nil && st.CollegeID != *f.CollegeID {
			continue
		}
		if f.Search != "" && !contains(st.Name, f.Search) && !contains(st.RollNumber, f.Search) && !contains(st.Email, f.Search) {
			continue
		}
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b Student) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (t *memTx) InsertEvent(_ context.Context, e Event) error {
	for _, existing := range t.s.events {
		if existing.CollegeID == e.CollegeID && existing.Code == e.Code {
			return conflict("event code already exists in this college")
		}
	}
	t.s.events[e.ID] = e
	return nil
}

func (t *memTx) GetEvent(_ context.Context, id uuid.UUID) (*Event, error) {
	e, ok := t.s.events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// LockEvent is a plain read: the whole store is already held by WithTx.
func (t *memTx) LockEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return t.GetEvent(ctx, id)
}

func (t *memTx) ListEvents(_ context.Context, f EventFilter) ([]Event, error) {
	out := []Event{}
	for _, e := range t.s.events {
		if f.CollegeID != nil && e.CollegeID != *f.CollegeID {
			continue
		}
		if f.Search != "" && !contains(e.Title, f.Search) && !contains(e.Code, f.Search) {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Event) int {
		if n := a.StartTime.Compare(b.StartTime); n != 0 {
			return n
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (t *memTx) GetRegistration(_ context.Context, id uuid.UUID) (*Registration, error) {
	r, ok := t.s.registrations[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (t *memTx) FindRegistration(_ context.Context, studentID, eventID uuid.UUID) (*Registration, error) {
	for _, r := range t.s.registrations {
		if r.StudentID == studentID && r.EventID == eventID {
			return &r, nil
		}
	}
	return nil, nil
}

func (t *memTx) CountRegistrations(_ context.Context, eventID uuid.UUID) (int, error) {
	n := 0
	for _, r := range t.s.registrations {
		if r.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) InsertRegistration(ctx context.Context, r Registration) error {
	if existing, _ := t.FindRegistration(ctx, r.StudentID, r.EventID); existing != nil {
		return conflict("student already registered for this event")
	}
	t.s.registrations[r.ID] = r
	return nil
}

func (t *memTx) ListRegistrations(_ context.Context, eventID uuid.UUID) ([]Registration, error) {
	out := []Registration{}
	for _, r := range t.s.registrations {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b Registration) int {
		if n := a.RegisteredAt.Compare(b.RegisteredAt); n != 0 {
			return n
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (t *memTx) FindOrCreateAttendance(_ context.Context, fresh Attendance) (Attendance, bool, error) {
	if existing, ok := t.s.attendance[fresh.RegistrationID]; ok {
		return existing, false, nil
	}
	t.s.attendance[fresh.RegistrationID] = fresh
	return fresh, true, nil
}

func (t *memTx) GetAttendance(_ context.Context, id uuid.UUID) (*Attendance, error) {
	for _, a := range t.s.attendance {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

func (t *memTx) SetAttendancePresent(_ context.Context, id uuid.UUID, present bool) error {
	for key, a := range t.s.attendance {
		if a.ID == id {
			a.Present = present
			t.s.attendance[key] = a
			return nil
		}
	}
	return nil
}

func (t *memTx) UpsertFeedback(_ context.Context, fb Feedback) (Feedback, bool, error) {
	existing, ok := t.s.feedback[fb.RegistrationID]
	if ok {
		existing.Rating = fb.Rating
		existing.Comment = fb.Comment
		existing.SubmittedAt = fb.SubmittedAt
		t.s.feedback[fb.RegistrationID] = existing
		return existing, false, nil
	}
	t.s.feedback[fb.RegistrationID] = fb
	return fb, true, nil
}

func (t *memTx) EventAggregates(_ context.Context, collegeID *uuid.UUID) ([]EventAggregate, error) {
	byEvent := map[uuid.UUID]*EventAggregate{}
	ratingSums := map[uuid.UUID]int{}
	ratingCounts := map[uuid.UUID]int{}
	for _, e := range t.s.events {
		if collegeID != nil && e.CollegeID != *collegeID {
			continue
		}
		byEvent[e.ID] = &EventAggregate{ID: e.ID, Title: e.Title, Code: e.Code}
	}
	for _, r := range t.s.registrations {
		agg, ok := byEvent[r.EventID]
		if !ok {
			continue
		}
		agg.Registrations++
		if _, ok := t.s.attendance[r.ID]; ok {
			agg.Attendance++
		}
		if fb, ok := t.s.feedback[r.ID]; ok {
			ratingSums[r.EventID] += fb.Rating
			ratingCounts[r.EventID]++
		}
	}

	out := make([]EventAggregate, 0, len(byEvent))
	for id, agg := range byEvent {
		if n := ratingCounts[id]; n > 0 {
			avg := float64(ratingSums[id]) / float64(n)
			agg.AvgRating = &avg
		}
		out = append(out, *agg)
	}
	slices.SortFunc(out, func(a, b EventAggregate) int {
		if n := strings.Compare(a.Title, b.Title); n != 0 {
			return n
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (t *memTx) StudentParticipation(_ context.Context, f ParticipationFilter) ([]StudentParticipation, error) {
	attended := map[uuid.UUID]int{}
	for _, r := range t.s.registrations {
		if a, ok := t.s.attendance[r.ID]; ok && a.Present {
			attended[r.StudentID]++
		}
	}

	out := []StudentParticipation{}
	for _, st := range t.s.students {
		if f.CollegeID != nil && st.CollegeID != *f.CollegeID {
			continue
		}
		if f.StudentID != nil && st.ID != *f.StudentID {
			continue
		}
		out = append(out, StudentParticipation{
			ID:             st.ID,
			Name:           st.Name,
			RollNumber:     st.RollNumber,
			AttendedEvents: attended[st.ID],
		})
	}
	slices.SortFunc(out, func(a, b StudentParticipation) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}
