package campus

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// CheckIn marks the referenced registration as present. The attendance row is
// created on the first check-in; later check-ins keep its check-in time.
func (s *Service) CheckIn(ctx context.Context, ref RegistrationRef) (att Attendance, created bool, err error) {
	ctx, span := s.tracer.Start(ctx, "campus.CheckIn")
	span.SetAttributes(attribute.String("ref", ref.String()))
	defer func() { endSpan(span, err) }()

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		reg, err := resolveRegistration(ctx, tx, ref)
		if err != nil {
			return err
		}
		att, created, err = tx.FindOrCreateAttendance(ctx, Attendance{
			ID:             s.newID(),
			RegistrationID: reg.ID,
			Present:        true,
			CheckinTime:    s.now(),
		})
		if err != nil {
			return fmt.Errorf("find or create attendance: %w", err)
		}
		if !att.Present {
			if err := tx.SetAttendancePresent(ctx, att.ID, true); err != nil {
				return fmt.Errorf("mark present: %w", err)
			}
			att.Present = true
		}
		return nil
	})
	if err != nil {
		return Attendance{}, false, err
	}
	return att, created, nil
}

// SetAttendance overwrites the present flag of an existing attendance record.
// It returns the updated record together with the owning registration.
func (s *Service) SetAttendance(ctx context.Context, attendanceID uuid.UUID, present bool) (Attendance, Registration, error) {
	var (
		att Attendance
		reg Registration
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		found, err := tx.GetAttendance(ctx, attendanceID)
		if err != nil {
			return fmt.Errorf("get attendance: %w", err)
		}
		if found == nil {
			return newError(CodeNotFound, "attendance not found")
		}
		if err := tx.SetAttendancePresent(ctx, attendanceID, present); err != nil {
			return fmt.Errorf("set present: %w", err)
		}
		owner, err := tx.GetRegistration(ctx, found.RegistrationID)
		if err != nil {
			return fmt.Errorf("get registration: %w", err)
		}
		if owner != nil {
			reg = *owner
		}
		att = *found
		att.Present = present
		return nil
	})
	if err != nil {
		return Attendance{}, Registration{}, err
	}
	return att, reg, nil
}
