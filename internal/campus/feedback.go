package campus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

const (
	MinRating = 1
	MaxRating = 5
)

// ValidateRating reports ErrInvalidRating for values outside [MinRating, MaxRating].
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// ParseRating converts a raw numeric literal to a rating. Fractions, empty
// input and out-of-range values fail with ErrInvalidRating.
func ParseRating(raw string) (int, error) {
	rating, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidRating
	}
	if err := ValidateRating(rating); err != nil {
		return 0, err
	}
	return rating, nil
}

// SubmitFeedback records the rating and comment for the referenced
// registration. A resubmission overwrites both and refreshes submitted_at.
func (s *Service) SubmitFeedback(ctx context.Context, ref RegistrationRef, rating int, comment string) (fb Feedback, created bool, err error) {
	ctx, span := s.tracer.Start(ctx, "campus.SubmitFeedback")
	span.SetAttributes(attribute.String("ref", ref.String()), attribute.Int("rating", rating))
	defer func() { endSpan(span, err) }()

	if err = ValidateRating(rating); err != nil {
		return Feedback{}, false, err
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		reg, err := resolveRegistration(ctx, tx, ref)
		if err != nil {
			return err
		}
		fb, created, err = tx.UpsertFeedback(ctx, Feedback{
			ID:             s.newID(),
			RegistrationID: reg.ID,
			Rating:         rating,
			Comment:        comment,
			SubmittedAt:    s.now(),
		})
		if err != nil {
			return fmt.Errorf("upsert feedback: %w", err)
		}
		return nil
	})
	if err != nil {
		return Feedback{}, false, err
	}
	return fb, created, nil
}
