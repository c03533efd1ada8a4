package auth

import (
	"errors"
	"net/http"

	"authhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/join", h.Join)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", h.Logout)
		authGroup.POST("/password-reset/request", h.RequestPasswordReset)
		authGroup.POST("/password-reset/confirm", h.ConfirmPasswordReset)
		authGroup.POST("/verify/request", h.RequestEmailVerification)
		authGroup.POST("/verify/confirm", h.ConfirmEmailVerification)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	principalGroup := protected.Group("/principals")
	{
		principalGroup.GET("/me", h.GetMe)
		principalGroup.PUT("/me", h.UpdateProfile)
		principalGroup.POST("/me/password", h.ChangePassword)
		principalGroup.POST("/me/logout-all", h.LogoutAll)
	}
}

// Join registers a new principal and returns the first token pair.
func (h *Handler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	principal, tokens, err := h.service.Join(c.Request.Context(), req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
			return
		}
		response.Error(c, http.StatusInternalServerError, "JOIN_FAILED", "Failed to register")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"principal": toPublic(principal),
		"tokens":    tokens,
	})
}

// Login authenticates a principal. Unknown email and wrong password produce
// the same response.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
		case errors.Is(err, ErrAccountLocked):
			response.Error(c, http.StatusUnauthorized, "ACCOUNT_LOCKED", "Too many failed attempts, try again later")
		case errors.Is(err, ErrAccountSuspended):
			response.Error(c, http.StatusForbidden, "ACCOUNT_SUSPENDED", "This account is suspended")
		default:
			response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to login")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"principal": toPublic(result.Principal),
		"tokens":    result.Tokens,
	})
}

// Refresh rotates the presented refresh token for a new pair.
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), req.RefreshToken, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		// Replay and plain invalid tokens must look identical from outside.
		if errors.Is(err, ErrInvalidRefreshToken) || errors.Is(err, ErrRefreshTokenReused) {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired refresh token")
			return
		}
		response.Error(c, http.StatusInternalServerError, "REFRESH_FAILED", "Failed to refresh session")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tokens": tokens})
}

// Logout revokes one session; repeating it is a silent success.
func (h *Handler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.Error(c, http.StatusInternalServerError, "LOGOUT_FAILED", "Failed to logout")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

// LogoutAll revokes every session of the authenticated principal.
func (h *Handler) LogoutAll(c *gin.Context) {
	principalID := c.GetInt64("principal_id")

	if err := h.service.LogoutAll(c.Request.Context(), principalID); err != nil {
		response.Error(c, http.StatusInternalServerError, "LOGOUT_FAILED", "Failed to logout")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "All sessions revoked"})
}

// ChangePassword swaps the credential and forces re-login everywhere.
func (h *Handler) ChangePassword(c *gin.Context) {
	principalID := c.GetInt64("principal_id")

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), principalID, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Current password is incorrect")
		case errors.Is(err, ErrSamePassword):
			response.Error(c, http.StatusBadRequest, "SAME_PASSWORD", "New password must differ from the current one")
		default:
			response.Error(c, http.StatusInternalServerError, "CHANGE_FAILED", "Failed to change password")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Password changed, all sessions revoked"})
}

// RequestPasswordReset always acknowledges, existing email or not.
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "RESET_REQUEST_FAILED", "Failed to process request")
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"status": result.Status})
}

// ConfirmPasswordReset consumes the token and sets the new password.
func (h *Handler) ConfirmPasswordReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.ConfirmPasswordReset(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, ErrInvalidVerificationToken) {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}
		response.Error(c, http.StatusInternalServerError, "RESET_FAILED", "Failed to reset password")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Password reset, all sessions revoked"})
}

// RequestEmailVerification issues/resends a verification token, subject to
// the resend cooldown.
func (h *Handler) RequestEmailVerification(c *gin.Context) {
	var req VerifyRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.RequestEmailVerification(c.Request.Context(), req.Email)
	if err != nil {
		var cooldown *ResendCooldownError
		if errors.As(err, &cooldown) {
			response.RateLimited(c, "RATE_LIMITED", "Please wait before requesting another email", int64(cooldown.RetryAfter.Seconds())+1)
			return
		}
		response.Error(c, http.StatusInternalServerError, "VERIFY_REQUEST_FAILED", "Failed to process request")
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"status": result.Status})
}

// ConfirmEmailVerification consumes the token and marks the email verified.
func (h *Handler) ConfirmEmailVerification(c *gin.Context) {
	var req VerifyConfirmDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.ConfirmEmailVerification(c.Request.Context(), req.Token)
	if err != nil {
		if errors.Is(err, ErrInvalidVerificationToken) {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}
		response.Error(c, http.StatusInternalServerError, "VERIFY_FAILED", "Failed to verify email")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": result.Status})
}

// GetMe returns the authenticated principal's profile.
func (h *Handler) GetMe(c *gin.Context) {
	principalID := c.GetInt64("principal_id")
	if principalID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	principal, err := h.service.GetCurrentPrincipal(c.Request.Context(), principalID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Principal not found")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"principal": toPublic(principal)})
}

// UpdateProfile updates mutable profile fields. Email cannot be changed
// through this endpoint.
func (h *Handler) UpdateProfile(c *gin.Context) {
	principalID := c.GetInt64("principal_id")

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	principal, err := h.service.UpdateProfile(c.Request.Context(), principalID, req)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "UPDATE_FAILED", "Could not update profile")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"principal": toPublic(principal)})
}
