// Package campus implements event registration, check-in, feedback and
// reporting for college-run events on top of an injected Store.
package campus

import (
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Service coordinates the campus operations. It holds no state between calls;
// every operation runs inside one Store unit of work.
type Service struct {
	store  Store
	now    func() time.Time
	newID  func() uuid.UUID
	tracer trace.Tracer
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.New,
		tracer: otel.Tracer("campusevents/internal/campus"),
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}
