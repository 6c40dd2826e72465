package handlers

import (
	"github.com/ensina-app/ensina-backend/internal/db"
	"github.com/ensina-app/ensina-backend/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth       *AuthHandler
	Import     *ImportHandler
	Invitation *InvitationHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services, cache *db.RedisDB) *Handlers {
	return &Handlers{
		Auth:       &AuthHandler{authService: services.Auth},
		Import:     NewImportHandler(services.Import, services.Tenant, cache),
		Invitation: &InvitationHandler{svc: services.Invitation, tenantSvc: services.Tenant},
	}
}
