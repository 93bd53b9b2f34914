package user

import (
	"context"
	"log/slog"

	"github.com/uptrace/bun"

	userdb "github.com/campus-coders-club/cp-board/app/modules/user/infrastructure/repositories"
	"github.com/campus-coders-club/cp-board/internal/observability"
)

// Module owns the user store. Other modules reach users through its
// repository.
type Module struct {
	repository userdb.Repository
	logger     *slog.Logger
}

// NewModule creates the user module.
func NewModule(ctx context.Context, obs *observability.Observability, db *bun.DB) *Module {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing user module")

	return &Module{
		repository: &userdb.UserDBImpl{DB: db},
		logger:     logger,
	}
}

// Repository returns the user repository for use by other modules.
func (m *Module) Repository() userdb.Repository {
	return m.repository
}
