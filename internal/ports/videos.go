package ports

import (
	"context"

	"reelgen/internal/models"
)

// VideoRepository records published videos. Get and Delete return a
// NOT_FOUND coded error for unknown or deleted IDs. Create fills CreatedAt.
type VideoRepository interface {
	Create(ctx context.Context, v *models.Video) error
	Get(ctx context.Context, id string) (*models.Video, error)
	List(ctx context.Context, limit int) ([]models.Video, error)
	Delete(ctx context.Context, id string) error
}
