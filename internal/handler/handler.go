// Package handler exposes the campus service over HTTP with gin.
package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campusevents/internal/campus"
	"campusevents/internal/metrics"
	"campusevents/internal/queue"
	"campusevents/internal/reportcache"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Options carries the optional collaborators of a Handler. Nil fields
// disable the matching feature.
type Options struct {
	Cache   *reportcache.Cache
	Queue   queue.Queue
	Metrics *metrics.Metrics
	Checks  map[string]HealthCheck
}

type Handler struct {
	svc     *campus.Service
	cache   *reportcache.Cache
	queue   queue.Queue
	metrics *metrics.Metrics
	checks  map[string]HealthCheck
}

func New(svc *campus.Service, opts Options) *Handler {
	return &Handler{
		svc:     svc,
		cache:   opts.Cache,
		queue:   opts.Queue,
		metrics: opts.Metrics,
		checks:  opts.Checks,
	}
}

// Mount registers every route on r. admin guards the directory write routes.
func (h *Handler) Mount(r gin.IRouter, admin ...gin.HandlerFunc) {
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.POST("/register", h.Register)
	api.POST("/checkin", h.CheckIn)
	api.POST("/feedback", h.SubmitFeedback)

	api.GET("/reports/popularity", h.EventPopularity)
	api.GET("/reports/student-participation", h.StudentParticipation)

	api.GET("/colleges", h.ListColleges)
	api.GET("/colleges/:id", h.GetCollege)
	api.GET("/colleges/:id/students", h.ListStudents)
	api.GET("/colleges/:id/events", h.ListEvents)
	api.GET("/events/:id", h.GetEvent)
	api.GET("/events/:id/registrations", h.ListRegistrations)

	ops := api.Group("", admin...)
	ops.POST("/colleges", h.CreateCollege)
	ops.POST("/colleges/:id/students", h.CreateStudent)
	ops.POST("/colleges/:id/events", h.CreateEvent)
	ops.PUT("/attendance/:id", h.SetAttendance)
}

// Instrument records request latency by route template.
func (h *Handler) Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if h.metrics == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		h.metrics.Latency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func (h *Handler) Healthz(c *gin.Context) {
	body := gin.H{"status": "ok"}
	status := http.StatusOK
	for name, check := range h.checks {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

// ---------- helpers ----------

// fail writes err as a JSON error body. Errors without a campus code are
// logged and answered with a generic 500.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	code := campus.CodeOf(err)
	h.metrics.Outcome(op, string(code))
	if code == campus.CodeUnknown {
		if errors.Is(err, context.Canceled) {
			log.Printf("%s: client gone: %v", op, err)
		} else {
			log.Printf("%s: %v", op, err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "INTERNAL"})
		return
	}
	c.JSON(code.HTTPStatus(), gin.H{"error": err.Error(), "code": code})
}

func (h *Handler) ok(op string) {
	h.metrics.Outcome(op, "")
}

func invalidInput(msg string) error {
	return &campus.Error{Code: campus.CodeInvalidInput, Message: msg}
}

func bindErr(err error) error {
	return &campus.Error{Code: campus.CodeInvalidInput, Message: "invalid request body: " + err.Error(), Cause: err}
}

func parseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalidInput(field + " must be a valid UUID")
	}
	return id, nil
}

// optionalUUID returns nil for an empty value.
func optionalUUID(raw, field string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := parseUUID(raw, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// refFrom prefers registration_id and falls back to the student/event pair.
func refFrom(registrationID, studentID, eventID string) (campus.RegistrationRef, error) {
	if registrationID != "" {
		id, err := parseUUID(registrationID, "registration_id")
		if err != nil {
			return campus.RegistrationRef{}, err
		}
		return campus.ByRegistration(id), nil
	}
	if studentID == "" || eventID == "" {
		return campus.RegistrationRef{}, campus.ErrRegistrationNotFound
	}
	sid, err := parseUUID(studentID, "student_id")
	if err != nil {
		return campus.RegistrationRef{}, err
	}
	eid, err := parseUUID(eventID, "event_id")
	if err != nil {
		return campus.RegistrationRef{}, err
	}
	return campus.ByStudentEvent(sid, eid), nil
}

// publish announces a write to the activity queue. Failures only log: the
// write is committed and cached reports expire on their own.
func (h *Handler) publish(c *gin.Context, msg queue.Message) {
	if h.queue == nil {
		return
	}
	msg.At = time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), time.Second)
	defer cancel()
	if err := h.queue.Publish(ctx, msg); err != nil {
		log.Printf("activity publish %s: %v", msg.Kind, err)
	}
}
