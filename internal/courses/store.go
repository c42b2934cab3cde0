// Package courses holds the student and teacher course views and the
// operations that keep them in sync with the backend.
package courses

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/coursehub/coursehub/internal/cli/client"
	"github.com/coursehub/coursehub/internal/notify"
)

// DefaultCapacity is the capacity a fresh course form starts with
const DefaultCapacity = 50

// ErrCancelled is returned when the user declines a confirmation
var ErrCancelled = errors.New("cancelled")

// API is the subset of the backend the course store talks to
type API interface {
	ListAvailableCourses(ctx context.Context) ([]client.Course, error)
	ListMyCourses(ctx context.Context) ([]client.MyCourse, error)
	Enroll(ctx context.Context, courseID int) error
	Drop(ctx context.Context, courseID int) error
	ListTeacherCourses(ctx context.Context) ([]client.Course, error)
	CreateCourse(ctx context.Context, req client.CreateCourseRequest) (*client.Course, error)
	DeleteCourse(ctx context.Context, courseID int) error
	CourseStudents(ctx context.Context, courseID int) (*client.Roster, error)
}

// Confirmer asks the user to confirm a destructive action
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(question string) (bool, error)

func (f ConfirmFunc) Confirm(question string) (bool, error) { return f(question) }

// AlwaysConfirm approves every confirmation
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) (bool, error) { return true, nil })

// CourseForm is the staging object for course creation
type CourseForm struct {
	Name        string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
	Capacity    int    `validate:"min=1,max=1000"`
}

// NewCourseForm returns an empty form with the default capacity
func NewCourseForm() CourseForm {
	return CourseForm{Capacity: DefaultCapacity}
}

// Store keeps the course lists shown to the current user
type Store struct {
	mu sync.RWMutex

	available   []client.Course
	mine        []client.MyCourse
	teaching    []client.Course
	form        CourseForm
	current     client.CourseRef
	roster      client.Roster
	rosterShown bool

	api      API
	notifier notify.Notifier
	confirm  Confirmer
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewStore creates an empty course store
func NewStore(api API, notifier notify.Notifier, confirm Confirmer, logger zerolog.Logger) *Store {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if confirm == nil {
		confirm = AlwaysConfirm
	}
	return &Store{
		available: []client.Course{},
		mine:      []client.MyCourse{},
		teaching:  []client.Course{},
		form:      NewCourseForm(),
		roster:    client.Roster{Students: []client.Student{}},
		api:       api,
		notifier:  notifier,
		confirm:   confirm,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Available returns the courses a student can browse
func (s *Store) Available() []client.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]client.Course(nil), s.available...)
}

// Mine returns the current student's enrollments
func (s *Store) Mine() []client.MyCourse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]client.MyCourse(nil), s.mine...)
}

// Teaching returns the current teacher's courses
func (s *Store) Teaching() []client.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]client.Course(nil), s.teaching...)
}

// Form returns the course creation form
func (s *Store) Form() CourseForm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.form
}

// SetForm replaces the course creation form
func (s *Store) SetForm(f CourseForm) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = f
}

// Roster returns the roster dialog contents and whether the dialog is open
func (s *Store) Roster() (client.CourseRef, client.Roster, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.roster, s.rosterShown
}

// FetchAvailable reloads the student course list
func (s *Store) FetchAvailable(ctx context.Context) error {
	courses, err := s.api.ListAvailableCourses(ctx)
	if err != nil {
		return s.fail(err, "Failed to load courses")
	}
	s.mu.Lock()
	s.available = courses
	s.mu.Unlock()
	return nil
}

// FetchMine reloads the student's enrollments
func (s *Store) FetchMine(ctx context.Context) error {
	courses, err := s.api.ListMyCourses(ctx)
	if err != nil {
		return s.fail(err, "Failed to load your courses")
	}
	s.mu.Lock()
	s.mine = courses
	s.mu.Unlock()
	return nil
}

// Enroll enrolls the student and refreshes the course list
func (s *Store) Enroll(ctx context.Context, courseID int) error {
	if err := s.api.Enroll(ctx, courseID); err != nil {
		return s.fail(err, "Enrollment failed")
	}
	s.logger.Info().Int("course_id", courseID).Msg("Enrolled")
	s.notifier.Success("Enrolled")
	return s.FetchAvailable(ctx)
}

// Drop asks for confirmation, drops the course and refreshes the student's list
func (s *Store) Drop(ctx context.Context, courseID int) error {
	if err := s.ask("Drop this course?"); err != nil {
		return err
	}
	if err := s.api.Drop(ctx, courseID); err != nil {
		return s.fail(err, "Failed to drop course")
	}
	s.logger.Info().Int("course_id", courseID).Msg("Dropped")
	s.notifier.Success("Course dropped")
	return s.FetchMine(ctx)
}

// FetchTeaching reloads the teacher's course list
func (s *Store) FetchTeaching(ctx context.Context) error {
	courses, err := s.api.ListTeacherCourses(ctx)
	if err != nil {
		return s.fail(err, "Failed to load courses")
	}
	s.mu.Lock()
	s.teaching = courses
	s.mu.Unlock()
	return nil
}

// Create submits the course form, resets it and refreshes the teacher's list
func (s *Store) Create(ctx context.Context) error {
	form := s.Form()
	if err := s.validate.Struct(form); err != nil {
		msg := formError(err)
		s.notifier.Warning(msg)
		return client.NewValidationError("create course", msg)
	}

	course, err := s.api.CreateCourse(ctx, client.CreateCourseRequest{
		Name:        form.Name,
		Description: form.Description,
		Capacity:    form.Capacity,
	})
	if err != nil {
		return s.fail(err, "Failed to create course")
	}
	if course != nil {
		s.logger.Info().Int("course_id", course.ID).Msg("Course created")
	}

	s.notifier.Success("Course created")
	s.SetForm(NewCourseForm())
	return s.FetchTeaching(ctx)
}

// Delete asks for confirmation, deletes the course and refreshes the teacher's list
func (s *Store) Delete(ctx context.Context, courseID int) error {
	if err := s.ask("Delete this course?"); err != nil {
		return err
	}
	if err := s.api.DeleteCourse(ctx, courseID); err != nil {
		return s.fail(err, "Failed to delete course")
	}
	s.logger.Info().Int("course_id", courseID).Msg("Course deleted")
	s.notifier.Success("Course deleted")
	return s.FetchTeaching(ctx)
}

// ViewStudents loads a course roster and opens the roster dialog
func (s *Store) ViewStudents(ctx context.Context, courseID int) error {
	roster, err := s.api.CourseStudents(ctx, courseID)
	if err != nil {
		return s.fail(err, "Failed to load students")
	}
	s.mu.Lock()
	s.roster = *roster
	s.current = roster.Course
	s.rosterShown = true
	s.mu.Unlock()
	return nil
}

// CloseStudents closes the roster dialog
func (s *Store) CloseStudents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosterShown = false
}

// ask returns ErrCancelled without showing anything when the user declines
func (s *Store) ask(question string) error {
	ok, err := s.confirm.Confirm(question)
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

// fail reports err to the user. An expired session is not reported: the
// interceptor has already cleared it and the next navigation redirects to login.
func (s *Store) fail(err error, fallback string) error {
	s.logger.Debug().Err(err).Msg(fallback)
	if client.KindOf(err) == client.KindUnauthorized {
		return err
	}
	s.notifier.Error(client.Message(err, fallback))
	return err
}

func formError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
