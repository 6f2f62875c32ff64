package service

import (
	"context"

	"github.com/cypherlabdev/betdesk-service/internal/models"
)

// FeedCache is an interface that abstracts feed snapshot storage
// This allows for easier testing and mocking
type FeedCache interface {
	SetSnapshot(ctx context.Context, snap *models.FeedSnapshot) error
	GetSnapshot(ctx context.Context) (*models.FeedSnapshot, error)
	Ping(ctx context.Context) error
	Close() error
}
