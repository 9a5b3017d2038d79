package dto

// ── Auth DTOs ──

// LoginRequest credential login.
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginResponse token pair plus profile.
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// RefreshRequest token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse new access token.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// UserResponse user profile.
type UserResponse struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	PhDType     *string  `json:"phd_type,omitempty"`
	PSRN        *string  `json:"psrn,omitempty"`
	ERPID       *string  `json:"erp_id,omitempty"`
	Roles       []string `json:"roles"`
	Deactivated bool     `json:"deactivated"`
}
