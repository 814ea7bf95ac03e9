package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campusevents/internal/campus"
	"campusevents/internal/queue"
)

type collegeRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h *Handler) CreateCollege(c *gin.Context) {
	const op = "create_college"
	var req collegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, op, bindErr(err))
		return
	}
	college, err := h.svc.CreateCollege(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	c.JSON(http.StatusCreated, college)
}

func (h *Handler) ListColleges(c *gin.Context) {
	const op = "list_colleges"
	colleges, err := h.svc.ListColleges(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	c.JSON(http.StatusOK, colleges)
}

func (h *Handler) GetCollege(c *gin.Context) {
	const op = "get_college"
	id, err := parseUUID(c.Param("id"), "college id")
	if err != nil {
		h.fail(c, op, err)
		return
	}
	college, err := h.svc.GetCollege(c.Request.Context(), id)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	c.JSON(http.StatusOK, college)
}

type studentRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	RollNumber string `json:"roll_number"`
}

func (h *Handler) CreateStudent(c *gin.Context) {
	const op = "create_student"
	collegeID, err := parseUUID(c.Param("id"), "college id")
	if err != nil {
		h.fail(c, op, err)
		return
	}
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, op, bindErr(err))
		return
	}
	st, err := h.svc.CreateStudent(c.Request.Context(), collegeID, req.Name, req.Email, req.RollNumber)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	h.publish(c, queue.Message{Kind: queue.KindStudentCreated})
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) ListStudents(c *gin.Context) {
	const op = "list_students"
	collegeID, err := parseUUID(c.Param("id"), "college id")
	if err != nil {
		h.fail(c, op, err)
		return
	}
	students, err := h.svc.ListStudents(c.Request.Context(), campus.StudentFilter{CollegeID: &collegeID, Search: c.Query("q")})
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	c.JSON(http.StatusOK, students)
}

type eventRequest struct {
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Capacity    *int      `json:"capacity"`
}

func (h *Handler) CreateEvent(c *gin.Context) {
	const op = "create_event"
	collegeID, err := parseUUID(c.Param("id"), "college id")
	if err != nil {
		h.fail(c, op, err)
		return
	}
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, op, bindErr(err))
		return
	}
	ev, err := h.svc.CreateEvent(c.Request.Context(), campus.NewEvent{
		CollegeID:   collegeID,
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
	})
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	h.publish(c, queue.Message{Kind: queue.KindEventCreated, EventID: ev.ID.String()})
	c.JSON(http.StatusCreated, ev)
}

func (h *Handler) ListEvents(c *gin.Context) {
	const op = "list_events"
	collegeID, err := parseUUID(c.Param("id"), "college id")
	if err != nil {
		h.fail(c, op, err)
		return
	}
	events, err := h.svc.ListEvents(c.Request.Context(), campus.EventFilter{CollegeID: &collegeID, Search: c.Query("q")})
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	c.JSON(http.StatusOK, events)
}

func (h *Handler) GetEvent(c *gin.Context) {
	const op = "get_event"
	id, err := parseUUID(c.Param("id"), "event id")
	if err != nil {
		h.fail(c, op, err)
		return
	}
	ev, err := h.svc.GetEvent(c.Request.Context(), id)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	c.JSON(http.StatusOK, ev)
}

func (h *Handler) ListRegistrations(c *gin.Context) {
	const op = "list_registrations"
	id, err := parseUUID(c.Param("id"), "event id")
	if err != nil {
		h.fail(c, op, err)
		return
	}
	regs, err := h.svc.ListRegistrations(c.Request.Context(), id)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	h.ok(op)
	c.JSON(http.StatusOK, regs)
}
