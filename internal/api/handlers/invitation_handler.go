package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/ensina-app/ensina-backend/internal/api/middleware"
	"github.com/ensina-app/ensina-backend/internal/repository"
	"github.com/ensina-app/ensina-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// InvitationHandler exposes HTTP endpoints for invitation flows.
type InvitationHandler struct {
	svc       service.InvitationService
	tenantSvc service.TenantService
}

type createInvitationReq struct {
	Email     string   `json:"email" binding:"required"`
	Role      string   `json:"role"`
	CourseIDs []string `json:"courseIds"`
}

// Create handles POST /api/invitations
func (h *InvitationHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	tenantID, err := h.tenantSvc.ResolveForAdmin(c.Request.Context(), userID, c.GetHeader("X-Tenant-ID"))
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Você não tem permissão para convidar"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve tenant"})
		return
	}

	var req createInvitationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	inv := &repository.Invitation{
		TenantID:  tenantID,
		Email:     req.Email,
		Role:      req.Role,
		InvitedBy: &userID,
		CourseIDs: req.CourseIDs,
	}
	if err := h.svc.Create(c.Request.Context(), inv); err != nil {
		if errors.Is(err, service.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "Este email já é membro ou já possui um convite pendente"})
			return
		}
		log.Printf("❌ [Invitation] Create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	c.JSON(http.StatusCreated, toInvitationResponse(inv))
}

// GetByToken handles GET /api/invitations/token/:token (public, used by the
// accept page to show who invited and to where).
func (h *InvitationHandler) GetByToken(c *gin.Context) {
	inv, err := h.svc.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invitation"})
		return
	}
	if inv == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Convite não encontrado"})
		return
	}
	c.JSON(http.StatusOK, toInvitationResponse(inv))
}

// Accept handles POST /api/invitations/accept/:token
func (h *InvitationHandler) Accept(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Accept(c.Request.Context(), c.Param("token"), userID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Convite não encontrado"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Cancel handles DELETE /api/invitations/:id
func (h *InvitationHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	if _, err := h.tenantSvc.ResolveForAdmin(c.Request.Context(), userID, c.GetHeader("X-Tenant-ID")); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Você não tem permissão para cancelar convites"})
		return
	}

	if err := h.svc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Convite não encontrado"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Resend handles POST /api/invitations/resend/:id
func (h *InvitationHandler) Resend(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	if _, err := h.tenantSvc.ResolveForAdmin(c.Request.Context(), userID, c.GetHeader("X-Tenant-ID")); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Você não tem permissão para reenviar convites"})
		return
	}

	inv, err := h.svc.Resend(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Convite não encontrado"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toInvitationResponse(inv))
}

// ListPending handles GET /api/invitations
func (h *InvitationHandler) ListPending(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	tenantID, err := h.tenantSvc.ResolveForAdmin(c.Request.Context(), userID, c.GetHeader("X-Tenant-ID"))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Você não tem permissão para listar convites"})
		return
	}

	invitations, err := h.svc.ListPending(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list invitations"})
		return
	}

	out := make([]gin.H, 0, len(invitations))
	for _, inv := range invitations {
		out = append(out, toInvitationResponse(inv))
	}
	c.JSON(http.StatusOK, gin.H{"invitations": out})
}

func toInvitationResponse(inv *repository.Invitation) gin.H {
	courseIDs := inv.CourseIDs
	if courseIDs == nil {
		courseIDs = []string{}
	}
	return gin.H{
		"id":        inv.ID,
		"tenantId":  inv.TenantID,
		"email":     inv.Email,
		"role":      inv.Role,
		"status":    inv.Status,
		"courseIds": courseIDs,
		"expiresAt": inv.ExpiresAt,
		"createdAt": inv.CreatedAt,
	}
}
