package campus

import (
	"time"

	"github.com/google/uuid"
)

// College is the tenant that owns students and events.
type College struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
	Name string    `json:"name"`
}

// Student belongs to exactly one college.
type Student struct {
	ID         uuid.UUID `json:"id"`
	CollegeID  uuid.UUID `json:"college_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	RollNumber string    `json:"roll_number"`
}

// Event belongs to exactly one college. A nil Capacity means unbounded.
type Event struct {
	ID          uuid.UUID `json:"id"`
	CollegeID   uuid.UUID `json:"college_id"`
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Capacity    *int      `json:"capacity"`
}

// Registration links a student to an event.
type Registration struct {
	ID           uuid.UUID `json:"id"`
	EventID      uuid.UUID `json:"event_id"`
	StudentID    uuid.UUID `json:"student_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Attendance is the single presence record of a registration.
type Attendance struct {
	ID             uuid.UUID `json:"id"`
	RegistrationID uuid.UUID `json:"registration_id"`
	Present        bool      `json:"present"`
	CheckinTime    time.Time `json:"checkin_time"`
}

// Feedback is the single rating of a registration. Resubmission overwrites it.
type Feedback struct {
	ID             uuid.UUID `json:"id"`
	RegistrationID uuid.UUID `json:"registration_id"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// EventReport is one row of the event popularity report.
type EventReport struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Code          string    `json:"code"`
	Registrations int       `json:"registrations"`
	Attendance    int       `json:"attendance"`
	AttendancePct float64   `json:"attendance_pct"`
	AvgRating     float64   `json:"avg_rating"`
}

// StudentParticipation is one row of the student participation report.
type StudentParticipation struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	RollNumber     string    `json:"roll_number"`
	AttendedEvents int       `json:"attended_events"`
}

// EventAggregate holds the raw per-event counts a store computes for the
// popularity report. AvgRating is nil when the event has no feedback.
type EventAggregate struct {
	ID            uuid.UUID
	Title         string
	Code          string
	Registrations int
	Attendance    int
	AvgRating     *float64
}

// ParticipationFilter narrows the participation report. Nil fields match all.
type ParticipationFilter struct {
	CollegeID *uuid.UUID
	StudentID *uuid.UUID
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	CollegeID *uuid.UUID
	Search    string
}

// EventFilter narrows event listings.
type EventFilter struct {
	CollegeID *uuid.UUID
	Search    string
}

// NewEvent carries the fields accepted when creating an event.
type NewEvent struct {
	CollegeID   uuid.UUID
	Code        string
	Title       string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	Capacity    *int
}
