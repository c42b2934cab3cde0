package auth

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
}
