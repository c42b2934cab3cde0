package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "coursehub-cli"

	maxErrorBody = 1 << 20
)

// Client represents an HTTP client for the course enrollment API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Options configures a Client
type Options struct {
	// Timeout bounds every request; DefaultTimeout when zero
	Timeout time.Duration
	// Transport is the innermost round tripper; http.DefaultTransport when nil
	Transport http.RoundTripper
	UserAgent string
	Logger    zerolog.Logger
}

// New creates a new API client rooted at baseURL (e.g. http://localhost:8000/api).
// Every request runs through the logging and auth interceptors; creds may be nil
// for a client that never sends credentials.
func New(baseURL string, creds Credentials, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	var transport http.RoundTripper = &LoggingTransport{
		Base:      opts.Transport,
		UserAgent: opts.UserAgent,
		Logger:    opts.Logger,
	}
	if creds != nil {
		transport = &AuthTransport{
			Base:        transport,
			Credentials: creds,
			Logger:      opts.Logger,
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		logger: opts.Logger,
	}
}

// BaseURL returns the API root this client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a JSON request and decodes a JSON response into out (when non-nil).
// Any non-2xx status becomes an *APIError carrying the backend's error text.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindValidation, Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Kind: KindTransport, Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindTransport, Op: op, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(op, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Kind: KindTransport, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

func decodeError(op string, resp *http.Response) *APIError {
	apiErr := &APIError{
		Kind:   kindForStatus(resp.StatusCode),
		Op:     op,
		Status: resp.StatusCode,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		apiErr.Err = fmt.Errorf("failed to read error body: %w", err)
		return apiErr
	}

	var payload errorPayload
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = strings.TrimSpace(payload.Error)
	}
	return apiErr
}

// Login authenticates against a role-specific login endpoint
func (c *Client) Login(ctx context.Context, path string, creds LoginRequest) (*LoginResponse, error) {
	var loginResp LoginResponse
	if err := c.do(ctx, "login", http.MethodPost, path, creds, &loginResp); err != nil {
		return nil, err
	}
	return &loginResp, nil
}

// Register creates an account through a role-specific registration endpoint
func (c *Client) Register(ctx context.Context, path string, reqBody RegisterRequest) (*Ack, error) {
	var ack Ack
	if err := c.do(ctx, "register", http.MethodPost, path, reqBody, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// Logout notifies the backend that the session ended
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, "/logout/", nil, nil)
}

// CurrentUser returns the user the current token belongs to
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var env userEnvelope
	if err := c.do(ctx, "current user", http.MethodGet, "/current-user/", nil, &env); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, &APIError{Kind: KindTransport, Op: "current user", Status: http.StatusOK, Err: fmt.Errorf("response has no user")}
	}
	return env.User, nil
}

// ListAvailableCourses returns every course, annotated for the current student
func (c *Client) ListAvailableCourses(ctx context.Context) ([]Course, error) {
	var env coursesEnvelope[Course]
	if err := c.do(ctx, "list courses", http.MethodGet, "/student/courses/", nil, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Courses), nil
}

// ListMyCourses returns the current student's enrollments
func (c *Client) ListMyCourses(ctx context.Context) ([]MyCourse, error) {
	var env coursesEnvelope[MyCourse]
	if err := c.do(ctx, "list my courses", http.MethodGet, "/student/my-courses/", nil, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Courses), nil
}

// Enroll enrolls the current student in a course
func (c *Client) Enroll(ctx context.Context, courseID int) error {
	return c.do(ctx, "enroll", http.MethodPost, "/student/enroll/", courseIDRequest{CourseID: courseID}, nil)
}

// Drop removes the current student from a course
func (c *Client) Drop(ctx context.Context, courseID int) error {
	return c.do(ctx, "drop", http.MethodPost, "/student/drop/", courseIDRequest{CourseID: courseID}, nil)
}

// ListTeacherCourses returns the courses taught by the current teacher
func (c *Client) ListTeacherCourses(ctx context.Context) ([]Course, error) {
	var env coursesEnvelope[Course]
	if err := c.do(ctx, "list teacher courses", http.MethodGet, "/teacher/courses/", nil, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Courses), nil
}

// CreateCourse creates a course owned by the current teacher
func (c *Client) CreateCourse(ctx context.Context, reqBody CreateCourseRequest) (*Course, error) {
	var resp createCourseResponse
	if err := c.do(ctx, "create course", http.MethodPost, "/teacher/courses/create/", reqBody, &resp); err != nil {
		return nil, err
	}
	return resp.Course, nil
}

// DeleteCourse deletes a course owned by the current teacher
func (c *Client) DeleteCourse(ctx context.Context, courseID int) error {
	return c.do(ctx, "delete course", http.MethodDelete, fmt.Sprintf("/teacher/courses/%d/delete/", courseID), nil, nil)
}

// CourseStudents returns the roster of a course owned by the current teacher
func (c *Client) CourseStudents(ctx context.Context, courseID int) (*Roster, error) {
	var roster Roster
	if err := c.do(ctx, "list students", http.MethodGet, fmt.Sprintf("/teacher/courses/%d/students/", courseID), nil, &roster); err != nil {
		return nil, err
	}
	roster.Students = nonNil(roster.Students)
	return &roster, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
