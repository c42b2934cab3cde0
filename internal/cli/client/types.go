package client

// User represents the authenticated user as returned by the backend
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Ack is the generic {message} acknowledgement
type Ack struct {
	Message string `json:"message"`
}

// Course represents a course as listed to students and teachers
type Course struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Teacher     string `json:"teacher,omitempty"`
	TeacherID   int    `json:"teacher_id,omitempty"`
	Capacity    int    `json:"capacity"`
	Enrolled    int    `json:"enrolled"`
	IsEnrolled  bool   `json:"is_enrolled"`
	IsFull      bool   `json:"is_full"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// MyCourse represents one of the current student's enrollments
type MyCourse struct {
	CourseID    int    `json:"course_id"`
	CourseName  string `json:"course_name"`
	Description string `json:"description"`
	Teacher     string `json:"teacher"`
	EnrolledAt  string `json:"enrolled_at"`
}

// CreateCourseRequest represents the course creation request
type CreateCourseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity"`
}

// CourseRef is the short course reference embedded in a roster
type CourseRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Student represents an enrolled student in a course roster
type Student struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	EnrolledAt string `json:"enrolled_at"`
}

// Roster is the list of students enrolled in a course
type Roster struct {
	Course   CourseRef `json:"course"`
	Students []Student `json:"students"`
	Total    int       `json:"total"`
}

type userEnvelope struct {
	User *User `json:"user"`
}

type coursesEnvelope[T any] struct {
	Courses []T `json:"courses"`
}

type createCourseResponse struct {
	Message string  `json:"message"`
	Course  *Course `json:"course"`
}

type courseIDRequest struct {
	CourseID int `json:"course_id"`
}

type errorPayload struct {
	Error string `json:"error"`
}
