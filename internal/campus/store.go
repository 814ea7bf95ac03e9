package campus

import (
	"context"

	"github.com/google/uuid"
)

// Store hands out one unit of work per service call. The callback's writes
// are committed together when it returns nil and discarded otherwise.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of reads and writes available inside one unit of work.
// Getters return nil with a nil error when the record does not exist.
// Inserts violating a uniqueness constraint fail with a CodeConflict error.
type Tx interface {
	InsertCollege(ctx context.Context, c College) error
	GetCollege(ctx context.Context, id uuid.UUID) (*College, error)
	ListColleges(ctx context.Context, search string) ([]College, error)

	InsertStudent(ctx context.Context, s Student) error
	GetStudent(ctx context.Context, id uuid.UUID) (*Student, error)
	ListStudents(ctx context.Context, f StudentFilter) ([]Student, error)

	InsertEvent(ctx context.Context, e Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	// LockEvent reads the event and holds it exclusively until the unit of
	// work ends, serializing registrations for that event.
	LockEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	ListEvents(ctx context.Context, f EventFilter) ([]Event, error)

	GetRegistration(ctx context.Context, id uuid.UUID) (*Registration, error)
	FindRegistration(ctx context.Context, studentID, eventID uuid.UUID) (*Registration, error)
	CountRegistrations(ctx context.Context, eventID uuid.UUID) (int, error)
	InsertRegistration(ctx context.Context, r Registration) error
	ListRegistrations(ctx context.Context, eventID uuid.UUID) ([]Registration, error)

	// FindOrCreateAttendance returns the attendance keyed by
	// fresh.RegistrationID, inserting fresh when none exists.
	FindOrCreateAttendance(ctx context.Context, fresh Attendance) (Attendance, bool, error)
	GetAttendance(ctx context.Context, id uuid.UUID) (*Attendance, error)
	SetAttendancePresent(ctx context.Context, id uuid.UUID, present bool) error

	// UpsertFeedback writes rating, comment and submitted_at for
	// fb.RegistrationID, keeping the existing identity on overwrite.
	UpsertFeedback(ctx context.Context, fb Feedback) (Feedback, bool, error)

	EventAggregates(ctx context.Context, collegeID *uuid.UUID) ([]EventAggregate, error)
	StudentParticipation(ctx context.Context, f ParticipationFilter) ([]StudentParticipation, error)
}

// RegistrationRef identifies a registration either directly or by its
// (student, event) pair.
type RegistrationRef struct {
	registrationID uuid.UUID
	studentID      uuid.UUID
	eventID        uuid.UUID
	byPair         bool
}

// ByRegistration refers to a registration by its identity.
func ByRegistration(id uuid.UUID) RegistrationRef {
	return RegistrationRef{registrationID: id}
}

// ByStudentEvent refers to the registration of a student for an event.
func ByStudentEvent(studentID, eventID uuid.UUID) RegistrationRef {
	return RegistrationRef{studentID: studentID, eventID: eventID, byPair: true}
}

func (r RegistrationRef) String() string {
	if r.byPair {
		return "student=" + r.studentID.String() + " event=" + r.eventID.String()
	}
	return "registration=" + r.registrationID.String()
}

// resolveRegistration is the single lookup behind check-in and feedback.
func resolveRegistration(ctx context.Context, tx Tx, ref RegistrationRef) (Registration, error) {
	var (
		reg *Registration
		err error
	)
	switch {
	case ref.byPair:
		reg, err = tx.FindRegistration(ctx, ref.studentID, ref.eventID)
	case ref.registrationID != uuid.Nil:
		reg, err = tx.GetRegistration(ctx, ref.registrationID)
	}
	if err != nil {
		return Registration{}, err
	}
	if reg == nil {
		return Registration{}, ErrRegistrationNotFound
	}
	return *reg, nil
}
