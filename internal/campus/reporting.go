package campus

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"
)

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// attendancePct is attendance as a percentage of registrations, 0 when there
// are no registrations.
func attendancePct(attendance, registrations int) float64 {
	if registrations == 0 {
		return 0
	}
	return round2(float64(attendance) * 100 / float64(registrations))
}

// buildEventReports turns raw aggregates into report rows ordered by
// registrations, highest first. Ties keep the store order.
func buildEventReports(aggs []EventAggregate) []EventReport {
	out := make([]EventReport, 0, len(aggs))
	for _, a := range aggs {
		avg := 0.0
		if a.AvgRating != nil {
			avg = round2(*a.AvgRating)
		}
		out = append(out, EventReport{
			ID:            a.ID,
			Title:         a.Title,
			Code:          a.Code,
			Registrations: a.Registrations,
			Attendance:    a.Attendance,
			AttendancePct: attendancePct(a.Attendance, a.Registrations),
			AvgRating:     avg,
		})
	}
	slices.SortStableFunc(out, func(a, b EventReport) int {
		return b.Registrations - a.Registrations
	})
	return out
}

// EventPopularity reports registrations, attendance and ratings per event,
// optionally restricted to one college.
//
// attendance counts registrations that have an attendance row, whatever its
// present flag says. StudentParticipation, by contrast, only counts rows
// marked present.
func (s *Service) EventPopularity(ctx context.Context, collegeID *uuid.UUID) (out []EventReport, err error) {
	ctx, span := s.tracer.Start(ctx, "campus.EventPopularity")
	defer func() { endSpan(span, err) }()

	var aggs []EventAggregate
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		aggs, err = tx.EventAggregates(ctx, collegeID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("event aggregates: %w", err)
	}
	return buildEventReports(aggs), nil
}

// StudentParticipation reports how many events each student attended.
func (s *Service) StudentParticipation(ctx context.Context, f ParticipationFilter) (out []StudentParticipation, err error) {
	ctx, span := s.tracer.Start(ctx, "campus.StudentParticipation")
	defer func() { endSpan(span, err) }()

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.StudentParticipation(ctx, f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("student participation: %w", err)
	}
	if out == nil {
		out = []StudentParticipation{}
	}
	slices.SortStableFunc(out, func(a, b StudentParticipation) int {
		return b.AttendedEvents - a.AttendedEvents
	})
	return out, nil
}
