package handlers

import (
	"iplocator/internal/config"
	"iplocator/internal/logging"
	"iplocator/internal/services"
)

type Handler struct {
	cfg          config.Config
	logger       logging.Logger
	visitService *services.VisitService
	reconciler   *services.Reconciler
	authService  *services.AuthService
	auditService *services.AuditService
}

func NewHandler(
	cfg config.Config,
	logger logging.Logger,
	visitService *services.VisitService,
	reconciler *services.Reconciler,
	authService *services.AuthService,
	auditService *services.AuditService,
) *Handler {
	return &Handler{
		cfg:          cfg,
		logger:       logger,
		visitService: visitService,
		reconciler:   reconciler,
		authService:  authService,
		auditService: auditService,
	}
}
