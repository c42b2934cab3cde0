package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coursehub/coursehub/internal/auth"
	"github.com/coursehub/coursehub/internal/models"
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"required,email"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *UserDetail `json:"user"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func newUserDetail(u *models.User) *UserDetail {
	return &UserDetail{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// bindJSON decodes and validates a request body, writing a 400 on failure
// normalizer is implemented by requests that clean their fields before validation
type normalizer interface {
	normalize()
}

func (r *RegisterRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
}

func (s *Server) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	if err := s.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return false
	}
	return true
}

func (s *Server) register(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if !s.bindJSON(c, &req) {
			return
		}

		var count int64
		if err := s.db.Model(&models.User{}).
			Where("role = ? AND (username = ? OR email = ?)", role, req.Username, req.Email).
			Count(&count).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to check existing users")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if count > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already registered"})
			return
		}

		passwordHash, err := auth.HashPassword(req.Password)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to hash password")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}

		user := &models.User{
			Role:         role,
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: passwordHash,
		}
		if err := s.db.Create(user).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to create user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}

		s.logger.Info().Int("user_id", user.ID).Str("role", role).Msg("User registered")
		c.JSON(http.StatusCreated, gin.H{"message": "Registration successful"})
	}
}

func (s *Server) login(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if !s.bindJSON(c, &req) {
			return
		}

		var user models.User
		err := s.db.Where("role = ? AND username = ?", role, req.Username).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !auth.CheckPassword(user.PasswordHash, req.Password)) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to look up user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		token, err := s.issuer.GenerateToken(user.ID, user.Role)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to generate token")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(http.StatusOK, LoginResponse{
			Message: "Login successful",
			Token:   token,
			User:    newUserDetail(&user),
		})
	}
}

// logout is stateless: tokens are not revoked server side
func (s *Server) logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserDetail(&user)})
}
