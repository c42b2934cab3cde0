package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coursehub/coursehub/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	errCourseNotFound  = errors.New("course not found")
	errCourseFull      = errors.New("course is full")
	errAlreadyEnrolled = errors.New("already enrolled in this course")
	errNotEnrolled     = errors.New("not enrolled in this course")
	errNotOwner        = errors.New("you can only manage your own courses")
)

// CourseIDRequest identifies a course in enroll and drop requests
type CourseIDRequest struct {
	CourseID int `json:"course_id" validate:"required,gt=0"`
}

// CreateCourseRequest represents a course creation request
type CreateCourseRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity" validate:"gt=0"`
}

func (r *CreateCourseRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

// CourseDetail is a course as listed to students and teachers
type CourseDetail struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Teacher     string `json:"teacher,omitempty"`
	TeacherID   int    `json:"teacher_id"`
	Capacity    int    `json:"capacity"`
	Enrolled    int    `json:"enrolled"`
	IsEnrolled  bool   `json:"is_enrolled"`
	IsFull      bool   `json:"is_full"`
	CreatedAt   string `json:"created_at"`
}

func newCourseDetail(course *models.Course) CourseDetail {
	return CourseDetail{
		ID:          course.ID,
		Name:        course.Name,
		Description: course.Description,
		Teacher:     course.Teacher.Username,
		TeacherID:   course.TeacherID,
		Capacity:    course.Capacity,
		Enrolled:    course.Enrolled,
		IsFull:      course.Full(),
		CreatedAt:   course.CreatedAt.Format(timeLayout),
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func courseIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course id"})
		return 0, false
	}
	return id, true
}

func (s *Server) internalError(c *gin.Context, err error, msg string) {
	s.logger.Error().Err(err).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func (s *Server) listCourses(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var courses []models.Course
	if err := s.db.Preload("Teacher").Order("id").Find(&courses).Error; err != nil {
		s.internalError(c, err, "Failed to list courses")
		return
	}

	var enrolledIDs []int
	if err := s.db.Model(&models.Enrollment{}).
		Where("student_id = ?", sessionData.UserID).
		Pluck("course_id", &enrolledIDs).Error; err != nil {
		s.internalError(c, err, "Failed to list courses")
		return
	}
	enrolled := make(map[int]bool, len(enrolledIDs))
	for _, id := range enrolledIDs {
		enrolled[id] = true
	}

	result := make([]CourseDetail, 0, len(courses))
	for i := range courses {
		detail := newCourseDetail(&courses[i])
		detail.IsEnrolled = enrolled[courses[i].ID]
		result = append(result, detail)
	}

	c.JSON(http.StatusOK, gin.H{"courses": result})
}

func (s *Server) listMyCourses(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var enrollments []models.Enrollment
	if err := s.db.Preload("Course.Teacher").
		Where("student_id = ?", sessionData.UserID).
		Order("enrolled_at").
		Find(&enrollments).Error; err != nil {
		s.internalError(c, err, "Failed to list courses")
		return
	}

	result := make([]gin.H, 0, len(enrollments))
	for _, e := range enrollments {
		result = append(result, gin.H{
			"course_id":   e.Course.ID,
			"course_name": e.Course.Name,
			"description": e.Course.Description,
			"teacher":     e.Course.Teacher.Username,
			"enrolled_at": e.EnrolledAt.Format(timeLayout),
		})
	}

	c.JSON(http.StatusOK, gin.H{"courses": result})
}

// enroll takes a seat in a transaction; the conditional update keeps
// enrolled from exceeding capacity under concurrent requests
func (s *Server) enroll(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req CourseIDRequest
	if !s.bindJSON(c, &req) {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := models.FindByID(tx, req.CourseID, &course); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errCourseNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.Enrollment{}).
			Where("student_id = ? AND course_id = ?", sessionData.UserID, course.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errAlreadyEnrolled
		}

		res := tx.Model(&models.Course{}).
			Where("id = ? AND enrolled < capacity", course.ID).
			UpdateColumn("enrolled", gorm.Expr("enrolled + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errCourseFull
		}

		return tx.Omit(clause.Associations).
			Create(&models.Enrollment{StudentID: sessionData.UserID, CourseID: course.ID}).Error
	})

	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Enrolled successfully"})
	case errors.Is(err, errCourseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errCourseFull), errors.Is(err, errAlreadyEnrolled):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.internalError(c, err, "Enrollment failed")
	}
}

func (s *Server) drop(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req CourseIDRequest
	if !s.bindJSON(c, &req) {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("student_id = ? AND course_id = ?", sessionData.UserID, req.CourseID).
			Delete(&models.Enrollment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errNotEnrolled
		}

		return tx.Model(&models.Course{}).
			Where("id = ? AND enrolled > 0", req.CourseID).
			UpdateColumn("enrolled", gorm.Expr("enrolled - 1")).Error
	})

	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Dropped successfully"})
	case errors.Is(err, errNotEnrolled):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.internalError(c, err, "Drop failed")
	}
}

func (s *Server) listTeacherCourses(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var courses []models.Course
	if err := s.db.Preload("Teacher").
		Where("teacher_id = ?", sessionData.UserID).
		Order("id").
		Find(&courses).Error; err != nil {
		s.internalError(c, err, "Failed to list courses")
		return
	}

	result := make([]CourseDetail, 0, len(courses))
	for i := range courses {
		result = append(result, newCourseDetail(&courses[i]))
	}

	c.JSON(http.StatusOK, gin.H{"courses": result})
}

func (s *Server) createCourse(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req CreateCourseRequest
	if !s.bindJSON(c, &req) {
		return
	}

	course := &models.Course{
		Name:        req.Name,
		Description: req.Description,
		TeacherID:   sessionData.UserID,
		Capacity:    req.Capacity,
	}
	if err := s.db.Omit(clause.Associations).Create(course).Error; err != nil {
		s.internalError(c, err, "Failed to create course")
		return
	}

	s.logger.Info().Int("course_id", course.ID).Int("teacher_id", course.TeacherID).Msg("Course created")
	c.JSON(http.StatusCreated, gin.H{
		"message": "Course created",
		"course":  newCourseDetail(course),
	})
}

// ownedCourse loads a course and checks the current teacher owns it
func (s *Server) ownedCourse(c *gin.Context) (*models.Course, bool) {
	sessionData, _ := GetSessionData(c)

	id, ok := courseIDParam(c)
	if !ok {
		return nil, false
	}

	var course models.Course
	if err := models.FindByID(s.db, id, &course); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errCourseNotFound.Error()})
			return nil, false
		}
		s.internalError(c, err, "Failed to load course")
		return nil, false
	}

	if course.TeacherID != sessionData.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": errNotOwner.Error()})
		return nil, false
	}
	return &course, true
}

func (s *Server) deleteCourse(c *gin.Context) {
	course, ok := s.ownedCourse(c)
	if !ok {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}
		return tx.Delete(course).Error
	})
	if err != nil {
		s.internalError(c, err, "Failed to delete course")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Course deleted"})
}

func (s *Server) listCourseStudents(c *gin.Context) {
	course, ok := s.ownedCourse(c)
	if !ok {
		return
	}

	var enrollments []models.Enrollment
	if err := s.db.Preload("Student").
		Where("course_id = ?", course.ID).
		Order("enrolled_at").
		Find(&enrollments).Error; err != nil {
		s.internalError(c, err, "Failed to list students")
		return
	}

	students := make([]gin.H, 0, len(enrollments))
	for _, e := range enrollments {
		students = append(students, gin.H{
			"id":          e.Student.ID,
			"username":    e.Student.Username,
			"email":       e.Student.Email,
			"enrolled_at": e.EnrolledAt.Format(timeLayout),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"course":   gin.H{"id": course.ID, "name": course.Name},
		"students": students,
		"total":    len(students),
	})
}
