package campus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// Repository persists campus data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// WithTx runs fn inside a read-committed transaction. Row locks taken by
// LockEvent are held until commit.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

// uniqueMessages names the constraint that was hit for conflict errors.
var uniqueMessages = map[string]string{
	"colleges_code_key":               "college code already exists",
	"students_college_email_key":      "email already registered in this college",
	"students_college_roll_key":       "roll number already registered in this college",
	"events_college_code_key":         "event code already exists in this college",
	"registrations_event_student_key": "student already registered for this event",
	"attendance_registration_id_key":  "attendance already recorded",
	"feedback_registration_id_key":    "feedback already recorded",
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		msg, ok := uniqueMessages[pgErr.ConstraintName]
		if !ok {
			msg = "duplicate record"
		}
		return &Error{Code: CodeConflict, Message: msg, Cause: err}
	}
	return err
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

// where accumulates AND-ed clauses with positional arguments.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// ---- colleges ----

func (t *pgTx) InsertCollege(ctx context.Context, c College) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO colleges (id, code, name) VALUES ($1, $2, $3)
	`, c.ID, c.Code, c.Name)
	return mapWriteErr(err)
}

func (t *pgTx) GetCollege(ctx context.Context, id uuid.UUID) (*College, error) {
	var c College
	err := t.tx.QueryRowContext(ctx, `SELECT id, code, name FROM colleges WHERE id = $1`, id).
		Scan(&c.ID, &c.Code, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *pgTx) ListColleges(ctx context.Context, search string) ([]College, error) {
	w := &where{}
	if search != "" {
		w.add("(name ILIKE '%' || ? || '%' OR code ILIKE '%' || ? || '%')", search)
	}
	rows, err := t.tx.QueryContext(ctx, `SELECT id, code, name FROM colleges`+w.String()+` ORDER BY name, code`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []College{}
	for rows.Next() {
		var c College
		if err := rows.Scan(&c.ID, &c.Code, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ---- students ----

const studentColumns = `id, college_id, name, email, roll_number`

func scanStudent(row interface{ Scan(...any) error }) (Student, error) {
	var st Student
	err := row.Scan(&st.ID, &st.CollegeID, &st.Name, &st.Email, &st.RollNumber)
	return st, err
}

func (t *pgTx) InsertStudent(ctx context.Context, st Student) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO students (id, college_id, name, email, roll_number)
		VALUES ($1, $2, $3, $4, $5)
	`, st.ID, st.CollegeID, st.Name, st.Email, st.RollNumber)
	return mapWriteErr(err)
}

func (t *pgTx) GetStudent(ctx context.Context, id uuid.UUID) (*Student, error) {
	st, err := scanStudent(t.tx.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (t *pgTx) ListStudents(ctx context.Context, f StudentFilter) ([]Student, error) {
	w := &where{}
	if f.CollegeID != nil {
		w.add("college_id = ?", f.CollegeID.String())
	}
	if f.Search != "" {
		w.add("(name ILIKE '%' || ? || '%' OR roll_number ILIKE '%' || ? || '%' OR email ILIKE '%' || ? || '%')", f.Search)
	}
	rows, err := t.tx.QueryContext(ctx, `SELECT `+studentColumns+` FROM students`+w.String()+` ORDER BY name, id`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// ---- events ----

const eventColumns = `id, college_id, code, title, description, location, start_time, end_time, capacity`

func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var (
		e        Event
		capacity sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.CollegeID, &e.Code, &e.Title, &e.Description, &e.Location, &e.StartTime, &e.EndTime, &capacity)
	if capacity.Valid {
		c := int(capacity.Int64)
		e.Capacity = &c
	}
	return e, err
}

func (t *pgTx) InsertEvent(ctx context.Context, e Event) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO events (id, college_id, code, title, description, location, start_time, end_time, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.CollegeID, e.Code, e.Title, e.Description, e.Location, e.StartTime, e.EndTime, nullableInt(e.Capacity))
	return mapWriteErr(err)
}

func (t *pgTx) getEvent(ctx context.Context, id uuid.UUID, lock bool) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	e, err := scanEvent(t.tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (t *pgTx) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return t.getEvent(ctx, id, false)
}

func (t *pgTx) LockEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return t.getEvent(ctx, id, true)
}

func (t *pgTx) ListEvents(ctx context.Context, f EventFilter) ([]Event, error) {
	w := &where{}
	if f.CollegeID != nil {
		w.add("college_id = ?", f.CollegeID.String())
	}
	if f.Search != "" {
		w.add("(title ILIKE '%' || ? || '%' OR code ILIKE '%' || ? || '%')", f.Search)
	}
	rows, err := t.tx.QueryContext(ctx, `SELECT `+eventColumns+` FROM events`+w.String()+` ORDER BY start_time, id`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ---- registrations ----

const registrationColumns = `id, event_id, student_id, registered_at`

func scanRegistration(row interface{ Scan(...any) error }) (*Registration, error) {
	var r Registration
	err := row.Scan(&r.ID, &r.EventID, &r.StudentID, &r.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *pgTx) GetRegistration(ctx context.Context, id uuid.UUID) (*Registration, error) {
	return scanRegistration(t.tx.QueryRowContext(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
}

func (t *pgTx) FindRegistration(ctx context.Context, studentID, eventID uuid.UUID) (*Registration, error) {
	return scanRegistration(t.tx.QueryRowContext(ctx, `
		SELECT `+registrationColumns+` FROM registrations WHERE student_id = $1 AND event_id = $2
	`, studentID, eventID))
}

func (t *pgTx) CountRegistrations(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&n)
	return n, err
}

func (t *pgTx) InsertRegistration(ctx context.Context, r Registration) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO registrations (id, event_id, student_id, registered_at)
		VALUES ($1, $2, $3, $4)
	`, r.ID, r.EventID, r.StudentID, r.RegisteredAt)
	return mapWriteErr(err)
}

func (t *pgTx) ListRegistrations(ctx context.Context, eventID uuid.UUID) ([]Registration, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 ORDER BY registered_at, id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Registration{}
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ---- attendance ----

const attendanceColumns = `id, registration_id, present, checkin_time`

func scanAttendance(row interface{ Scan(...any) error }) (Attendance, error) {
	var a Attendance
	err := row.Scan(&a.ID, &a.RegistrationID, &a.Present, &a.CheckinTime)
	return a, err
}

func (t *pgTx) FindOrCreateAttendance(ctx context.Context, fresh Attendance) (Attendance, bool, error) {
	a, err := scanAttendance(t.tx.QueryRowContext(ctx, `
		INSERT INTO attendance (id, registration_id, present, checkin_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (registration_id) DO NOTHING
		RETURNING `+attendanceColumns,
		fresh.ID, fresh.RegistrationID, fresh.Present, fresh.CheckinTime))
	if err == nil {
		return a, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Attendance{}, false, err
	}
	a, err = scanAttendance(t.tx.QueryRowContext(ctx, `
		SELECT `+attendanceColumns+` FROM attendance WHERE registration_id = $1 FOR UPDATE
	`, fresh.RegistrationID))
	if err != nil {
		return Attendance{}, false, err
	}
	return a, false, nil
}

func (t *pgTx) GetAttendance(ctx context.Context, id uuid.UUID) (*Attendance, error) {
	a, err := scanAttendance(t.tx.QueryRowContext(ctx, `
		SELECT `+attendanceColumns+` FROM attendance WHERE id = $1 FOR UPDATE
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *pgTx) SetAttendancePresent(ctx context.Context, id uuid.UUID, present bool) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE attendance SET present = $2 WHERE id = $1`, id, present)
	return err
}

// ---- feedback ----

func (t *pgTx) UpsertFeedback(ctx context.Context, fb Feedback) (Feedback, bool, error) {
	var (
		out      Feedback
		inserted bool
	)
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO feedback (id, registration_id, rating, comment, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (registration_id) DO UPDATE SET
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			submitted_at = EXCLUDED.submitted_at
		RETURNING id, registration_id, rating, comment, submitted_at, (xmax = 0)
	`, fb.ID, fb.RegistrationID, fb.Rating, fb.Comment, fb.SubmittedAt).
		Scan(&out.ID, &out.RegistrationID, &out.Rating, &out.Comment, &out.SubmittedAt, &inserted)
	if err != nil {
		return Feedback{}, false, mapWriteErr(err)
	}
	return out, inserted, nil
}

// ---- reports ----

func (t *pgTx) EventAggregates(ctx context.Context, collegeID *uuid.UUID) ([]EventAggregate, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT e.id, e.title, e.code,
			COUNT(DISTINCT r.id) AS registrations,
			COUNT(DISTINCT a.id) AS attendance,
			AVG(f.rating)::float8 AS avg_rating
		FROM events e
		LEFT JOIN registrations r ON r.event_id = e.id
		LEFT JOIN attendance a ON a.registration_id = r.id
		LEFT JOIN feedback f ON f.registration_id = r.id
		WHERE $1::uuid IS NULL OR e.college_id = $1::uuid
		GROUP BY e.id, e.title, e.code
		ORDER BY e.title, e.id
	`, nullableUUID(collegeID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []EventAggregate{}
	for rows.Next() {
		var (
			a   EventAggregate
			avg sql.NullFloat64
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Code, &a.Registrations, &a.Attendance, &avg); err != nil {
			return nil, err
		}
		if avg.Valid {
			v := avg.Float64
			a.AvgRating = &v
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (t *pgTx) StudentParticipation(ctx context.Context, f ParticipationFilter) ([]StudentParticipation, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT s.id, s.name, s.roll_number,
			COUNT(DISTINCT a.id) FILTER (WHERE a.present) AS attended_events
		FROM students s
		LEFT JOIN registrations r ON r.student_id = s.id
		LEFT JOIN attendance a ON a.registration_id = r.id
		WHERE ($1::uuid IS NULL OR s.college_id = $1::uuid)
			AND ($2::uuid IS NULL OR s.id = $2::uuid)
		GROUP BY s.id, s.name, s.roll_number
		ORDER BY s.name, s.id
	`, nullableUUID(f.CollegeID), nullableUUID(f.StudentID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []StudentParticipation{}
	for rows.Next() {
		var p StudentParticipation
		if err := rows.Scan(&p.ID, &p.Name, &p.RollNumber, &p.AttendedEvents); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
