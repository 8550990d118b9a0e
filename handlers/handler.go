package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/padraicbc/trainagenda/models"
	"github.com/padraicbc/trainagenda/scheduling"
)

// Users looks up logins for signin.
type Users interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	svc    *scheduling.Service
	users  Users
	JWTKey []byte
	log    *zap.Logger
}

// New creates a Handler over the scheduling service, the login store and the
// JWT signing key.
func New(svc *scheduling.Service, users Users, jwtKey []byte, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, users: users, JWTKey: jwtKey, log: log}
}
