package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campusevents/internal/campus"
	"campusevents/internal/reportcache"
)

const (
	reportPopularity    = "popularity"
	reportParticipation = "participation"
)

func (h *Handler) cacheHeader(c *gin.Context, report string, hit bool) {
	h.metrics.CacheResult(report, hit)
	if h.cache == nil {
		return
	}
	if hit {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
}

func scope(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// EventPopularity handles GET /api/reports/popularity?college=.
func (h *Handler) EventPopularity(c *gin.Context) {
	const op = "report_popularity"
	college, err := optionalUUID(c.Query("college"), "college")
	if err != nil {
		h.fail(c, op, err)
		return
	}

	key := reportcache.Key(scope(college), reportPopularity, "")
	rows, hit, err := reportcache.Load(c.Request.Context(), h.cache, key, func(ctx context.Context) ([]campus.EventReport, error) {
		return h.svc.EventPopularity(ctx, college)
	})
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	h.cacheHeader(c, reportPopularity, hit)
	c.JSON(http.StatusOK, rows)
}

// StudentParticipation handles GET /api/reports/student-participation?college=&student=.
func (h *Handler) StudentParticipation(c *gin.Context) {
	const op = "report_participation"
	college, err := optionalUUID(c.Query("college"), "college")
	if err != nil {
		h.fail(c, op, err)
		return
	}
	student, err := optionalUUID(c.Query("student"), "student")
	if err != nil {
		h.fail(c, op, err)
		return
	}

	filter := campus.ParticipationFilter{CollegeID: college, StudentID: student}
	key := reportcache.Key(scope(college), reportParticipation, "student="+scope(student))
	rows, hit, err := reportcache.Load(c.Request.Context(), h.cache, key, func(ctx context.Context) ([]campus.StudentParticipation, error) {
		return h.svc.StudentParticipation(ctx, filter)
	})
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	h.cacheHeader(c, reportParticipation, hit)
	c.JSON(http.StatusOK, rows)
}
