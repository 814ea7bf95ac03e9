package campus

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)

func invalid(format string, args ...any) *Error {
	return newError(CodeInvalidInput, fmt.Sprintf(format, args...))
}

// CreateCollege adds a college with a unique slug code.
func (s *Service) CreateCollege(ctx context.Context, code, name string) (College, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if !slugPattern.MatchString(code) {
		return College{}, invalid("college code %q must be a lowercase slug", code)
	}
	if name == "" {
		return College{}, invalid("college name required")
	}

	c := College{ID: s.newID(), Code: code, Name: name}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertCollege(ctx, c)
	})
	if err != nil {
		return College{}, err
	}
	return c, nil
}

// GetCollege returns a college by id.
func (s *Service) GetCollege(ctx context.Context, id uuid.UUID) (College, error) {
	var out College
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		c, err := tx.GetCollege(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return newError(CodeNotFound, "college not found")
		}
		out = *c
		return nil
	})
	return out, err
}

// ListColleges returns colleges whose name or code contains search.
func (s *Service) ListColleges(ctx context.Context, search string) ([]College, error) {
	var out []College
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListColleges(ctx, strings.TrimSpace(search))
		return err
	})
	return out, err
}

// CreateStudent adds a student to a college. Email and roll number are unique
// within the college.
func (s *Service) CreateStudent(ctx context.Context, collegeID uuid.UUID, name, email, rollNumber string) (Student, error) {
	st := Student{
		ID:         s.newID(),
		CollegeID:  collegeID,
		Name:       strings.TrimSpace(name),
		Email:      strings.TrimSpace(email),
		RollNumber: strings.TrimSpace(rollNumber),
	}
	if st.Name == "" {
		return Student{}, invalid("student name required")
	}
	if st.RollNumber == "" {
		return Student{}, invalid("roll number required")
	}
	if addr, err := mail.ParseAddress(st.Email); err != nil || addr.Address != st.Email {
		return Student{}, invalid("invalid email %q", st.Email)
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		c, err := tx.GetCollege(ctx, collegeID)
		if err != nil {
			return err
		}
		if c == nil {
			return newError(CodeNotFound, "college not found")
		}
		return tx.InsertStudent(ctx, st)
	})
	if err != nil {
		return Student{}, err
	}
	return st, nil
}

// ListStudents returns students matching the filter.
func (s *Service) ListStudents(ctx context.Context, f StudentFilter) ([]Student, error) {
	f.Search = strings.TrimSpace(f.Search)
	var out []Student
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListStudents(ctx, f)
		return err
	})
	return out, err
}

// CreateEvent adds an event to a college. The code is unique within the college.
func (s *Service) CreateEvent(ctx context.Context, in NewEvent) (Event, error) {
	e := Event{
		ID:          s.newID(),
		CollegeID:   in.CollegeID,
		Code:        strings.TrimSpace(in.Code),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Location:    strings.TrimSpace(in.Location),
		StartTime:   in.StartTime.UTC(),
		EndTime:     in.EndTime.UTC(),
		Capacity:    in.Capacity,
	}
	switch {
	case !slugPattern.MatchString(e.Code):
		return Event{}, invalid("event code %q must be a lowercase slug", e.Code)
	case e.Title == "":
		return Event{}, invalid("event title required")
	case e.StartTime.IsZero() || e.EndTime.IsZero():
		return Event{}, invalid("start_time and end_time required")
	case e.EndTime.Before(e.StartTime):
		return Event{}, invalid("end_time must not precede start_time")
	case e.Capacity != nil && *e.Capacity < 0:
		return Event{}, invalid("capacity must not be negative")
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		c, err := tx.GetCollege(ctx, in.CollegeID)
		if err != nil {
			return err
		}
		if c == nil {
			return newError(CodeNotFound, "college not found")
		}
		return tx.InsertEvent(ctx, e)
	})
	if err != nil {
		return Event{}, err
	}
	return e, nil
}

// GetEvent returns an event by id.
func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (Event, error) {
	var out Event
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		e, err := tx.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		if e == nil {
			return newError(CodeNotFound, "event not found")
		}
		out = *e
		return nil
	})
	return out, err
}

// ListEvents returns events matching the filter.
func (s *Service) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	f.Search = strings.TrimSpace(f.Search)
	var out []Event
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, err = tx.ListEvents(ctx, f)
		return err
	})
	return out, err
}
