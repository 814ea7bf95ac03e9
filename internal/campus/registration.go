package campus

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Register creates the registration of a student for an event, or returns the
// existing one. created reports whether a new registration was written.
//
// The event row is locked for the rest of the unit of work, so the capacity
// count and the insert cannot interleave with another registration for the
// same event.
func (s *Service) Register(ctx context.Context, studentID, eventID uuid.UUID) (reg Registration, created bool, err error) {
	ctx, span := s.tracer.Start(ctx, "campus.Register")
	span.SetAttributes(
		attribute.String("student_id", studentID.String()),
		attribute.String("event_id", eventID.String()),
	)
	defer func() { endSpan(span, err) }()

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		student, err := tx.GetStudent(ctx, studentID)
		if err != nil {
			return fmt.Errorf("get student: %w", err)
		}
		event, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("lock event: %w", err)
		}
		if student == nil || event == nil {
			return newError(CodeNotFound, "invalid student_id or event_id")
		}
		if student.CollegeID != event.CollegeID {
			return ErrCrossCollegeMismatch
		}

		existing, err := tx.FindRegistration(ctx, studentID, eventID)
		if err != nil {
			return fmt.Errorf("find registration: %w", err)
		}
		if existing != nil {
			reg = *existing
			return nil
		}

		if event.Capacity != nil {
			count, err := tx.CountRegistrations(ctx, eventID)
			if err != nil {
				return fmt.Errorf("count registrations: %w", err)
			}
			if count >= *event.Capacity {
				return newError(CodeCapacityExceeded, "event capacity reached, cannot register more students")
			}
		}

		reg = Registration{
			ID:           s.newID(),
			EventID:      eventID,
			StudentID:    studentID,
			RegisteredAt: s.now(),
		}
		if err := tx.InsertRegistration(ctx, reg); err != nil {
			return fmt.Errorf("insert registration: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return Registration{}, false, err
	}
	return reg, created, nil
}

// ListRegistrations returns the registrations of an event.
func (s *Service) ListRegistrations(ctx context.Context, eventID uuid.UUID) ([]Registration, error) {
	var out []Registration
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return newError(CodeNotFound, "event not found")
		}
		out, err = tx.ListRegistrations(ctx, eventID)
		return err
	})
	return out, err
}
