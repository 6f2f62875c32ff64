package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/cypherlabdev/betdesk-service/internal/models"
)

// BetBook is an interface that abstracts position book storage
// This allows for easier testing and mocking
type BetBook interface {
	Insert(ctx context.Context, rec *models.BetRecord) error
	Get(ctx context.Context, id uuid.UUID) (*models.BetRecord, error)
	List(ctx context.Context) ([]models.BetRecord, error)
	Settle(ctx context.Context, id uuid.UUID, status models.BetStatus, resultScore string) (*models.BetRecord, error)
	Ping(ctx context.Context) error
	Close() error
}
