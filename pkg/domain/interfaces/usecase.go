package interfaces

import (
	"context"

	"github.com/m-mizutani/modsync/pkg/domain/model"
)

// NexusSyncUseCase resolves, persists and downloads tracked mods per domain
type NexusSyncUseCase interface {
	Run(ctx context.Context, domains []model.GameDomain) (*model.RunSummary, error)
}

// GameBananaSyncUseCase downloads subscribed mods of a member
type GameBananaSyncUseCase interface {
	Run(ctx context.Context, userID string, domain model.GameDomain) (*model.RunSummary, error)
}

// RenameUseCase reconciles identifier-named folders of local domains
type RenameUseCase interface {
	Run(ctx context.Context, domains []model.GameDomain) (*model.RunSummary, error)
}
