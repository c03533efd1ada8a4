package admin

import (
	"errors"
	"net/http"
	"strconv"

	"authhub/internal/pkg/response"
	"authhub/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/principals", h.ListPrincipals)
	admin.GET("/principals/:id", h.GetPrincipal)
	admin.PATCH("/principals/:id/suspend", h.Suspend)
	admin.PATCH("/principals/:id/unsuspend", h.Unsuspend)
	admin.PATCH("/principals/:id/role", h.SetRole)
}

func (h *Handler) ListPrincipals(c *gin.Context) {
	var q ListQuery
	_ = c.ShouldBindQuery(&q)

	principals, total, err := h.service.ListPrincipals(c.Request.Context(), q.Page, q.Limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to list principals")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"principals": principals,
		"total":      total,
	})
}

func (h *Handler) GetPrincipal(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}

	principal, err := h.service.GetPrincipal(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Principal not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "LOOKUP_FAILED", "Failed to look up principal")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"principal": principal})
}

func (h *Handler) Suspend(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}

	var req SuspendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if fields := validator.Validate(&req); fields != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", fields)
		return
	}

	if err := h.service.Suspend(c.Request.Context(), id, req.Reason); err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Principal not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "SUSPEND_FAILED", "Failed to suspend principal")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Principal suspended, sessions revoked"})
}

func (h *Handler) Unsuspend(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}

	if err := h.service.Unsuspend(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Principal not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "UNSUSPEND_FAILED", "Failed to unsuspend principal")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Principal unsuspended"})
}

func (h *Handler) SetRole(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		return
	}

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if fields := validator.Validate(&req); fields != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", fields)
		return
	}

	if err := h.service.SetRole(c.Request.Context(), id, req.Role); err != nil {
		switch {
		case errors.Is(err, ErrPrincipalNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Principal not found")
		case errors.Is(err, ErrInvalidRole):
			response.Error(c, http.StatusBadRequest, "INVALID_ROLE", "Unknown role")
		default:
			response.Error(c, http.StatusInternalServerError, "ROLE_FAILED", "Failed to change role")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Role updated"})
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid principal ID")
		return 0, err
	}
	return id, nil
}
