package models

import (
	"time"

	"gorm.io/gorm"
)

// Role values stored on User
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// User is a student or teacher account. Usernames are unique per role.
type User struct {
	ID           int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Role         string    `json:"role" gorm:"type:varchar(16);not null;uniqueIndex:idx_role_username;uniqueIndex:idx_role_email"`
	Username     string    `json:"username" gorm:"type:varchar(100);not null;uniqueIndex:idx_role_username"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:idx_role_email"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Course is a course offered by a teacher
type Course struct {
	ID          int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name" gorm:"type:varchar(200);not null"`
	Description string    `json:"description" gorm:"type:text"`
	TeacherID   int       `json:"teacher_id" gorm:"index;not null"`
	Teacher     User      `json:"-" gorm:"foreignKey:TeacherID"`
	Capacity    int       `json:"capacity" gorm:"not null;default:50"`
	Enrolled    int       `json:"enrolled" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Full reports whether the course has no seats left
func (c *Course) Full() bool {
	return c.Enrolled >= c.Capacity
}

// Enrollment links a student to a course
type Enrollment struct {
	ID         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	StudentID  int       `json:"student_id" gorm:"not null;uniqueIndex:idx_student_course"`
	Student    User      `json:"-" gorm:"foreignKey:StudentID"`
	CourseID   int       `json:"course_id" gorm:"not null;uniqueIndex:idx_student_course;index"`
	Course     Course    `json:"-" gorm:"foreignKey:CourseID"`
	EnrolledAt time.Time `json:"enrolled_at" gorm:"autoCreateTime"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	// Collect all models
	models := []interface{}{
		&User{}, &Course{}, &Enrollment{},
	}

	return db.AutoMigrate(models...)
}

// FindByID finds a record by integer ID
func FindByID[T any](db *gorm.DB, id int, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
