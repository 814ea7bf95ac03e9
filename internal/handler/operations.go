package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"campusevents/internal/campus"
	"campusevents/internal/queue"
)

type registerRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	EventID   string `json:"event_id" binding:"required"`
}

// Register handles POST /api/register. Repeat calls return the existing
// registration with the same status.
func (h *Handler) Register(c *gin.Context) {
	const op = "register"
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, op, bindErr(err))
		return
	}
	studentID, err := parseUUID(req.StudentID, "student_id")
	if err != nil {
		h.fail(c, op, err)
		return
	}
	eventID, err := parseUUID(req.EventID, "event_id")
	if err != nil {
		h.fail(c, op, err)
		return
	}

	reg, created, err := h.svc.Register(c.Request.Context(), studentID, eventID)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	if created {
		h.publish(c, queue.Message{
			Kind:           queue.KindRegistrationCreated,
			RegistrationID: reg.ID.String(),
			EventID:        reg.EventID.String(),
		})
	}
	c.JSON(http.StatusCreated, gin.H{"registration_id": reg.ID})
}

type refRequest struct {
	RegistrationID string `json:"registration_id"`
	StudentID      string `json:"student_id"`
	EventID        string `json:"event_id"`
}

// CheckIn handles POST /api/checkin.
func (h *Handler) CheckIn(c *gin.Context) {
	const op = "checkin"
	var req refRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, op, bindErr(err))
		return
	}
	ref, err := refFrom(req.RegistrationID, req.StudentID, req.EventID)
	if err != nil {
		h.fail(c, op, err)
		return
	}

	att, _, err := h.svc.CheckIn(c.Request.Context(), ref)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	h.publish(c, queue.Message{Kind: queue.KindCheckedIn, RegistrationID: att.RegistrationID.String()})
	c.JSON(http.StatusOK, gin.H{"attendance_id": att.ID, "present": att.Present})
}

type feedbackRequest struct {
	refRequest
	Rating  json.Number `json:"rating"`
	Comment string      `json:"comment"`
}

// SubmitFeedback handles POST /api/feedback. The rating is checked before the
// registration is looked up.
func (h *Handler) SubmitFeedback(c *gin.Context) {
	const op = "feedback"
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, op, bindErr(err))
		return
	}
	rating, err := campus.ParseRating(req.Rating.String())
	if err != nil {
		h.fail(c, op, err)
		return
	}
	ref, err := refFrom(req.RegistrationID, req.StudentID, req.EventID)
	if err != nil {
		h.fail(c, op, err)
		return
	}

	fb, _, err := h.svc.SubmitFeedback(c.Request.Context(), ref, rating, req.Comment)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	h.publish(c, queue.Message{Kind: queue.KindFeedbackSubmitted, RegistrationID: fb.RegistrationID.String()})
	c.JSON(http.StatusCreated, gin.H{"feedback_id": fb.ID, "rating": fb.Rating})
}

type attendanceRequest struct {
	Present *bool `json:"present" binding:"required"`
}

// SetAttendance handles PUT /api/attendance/:id.
func (h *Handler) SetAttendance(c *gin.Context) {
	const op = "set_attendance"
	id, err := parseUUID(c.Param("id"), "attendance id")
	if err != nil {
		h.fail(c, op, err)
		return
	}
	var req attendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, op, bindErr(err))
		return
	}

	att, reg, err := h.svc.SetAttendance(c.Request.Context(), id, *req.Present)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	h.publish(c, queue.Message{
		Kind:           queue.KindAttendanceUpdated,
		RegistrationID: reg.ID.String(),
		EventID:        reg.EventID.String(),
	})
	c.JSON(http.StatusOK, att)
}
