// Package journeys stores local mirrors of journeys and chapter progress.
// They are the foreign-key targets recordings point at.
package journeys

import (
	"context"

	"github.com/dmitrijs2005/journeykeeper/internal/client/models"
)

type Repository interface {
	UpsertJourney(ctx context.Context, j models.Journey) error
	GetJourney(ctx context.Context, id string) (*models.Journey, error)
	UpsertChapterProgress(ctx context.Context, p models.ChapterProgress) (*models.ChapterProgress, error)
	ListChapterProgress(ctx context.Context, journeyID string) ([]models.ChapterProgress, error)
}
