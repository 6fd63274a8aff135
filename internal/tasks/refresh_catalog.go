package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/reader/internal/bookshelf"
	"github.com/mrlokans/reader/internal/source"
)

// RefreshCatalogTask re-fetches one shelf book's catalog and records its
// chapter count and latest chapter title, so the shelf can show "new
// chapters" badges without an open reading session.
type RefreshCatalogTask struct {
	BookURL string `json:"book_url"`
}

// Config returns the queue configuration for catalog refresh tasks.
func (t RefreshCatalogTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "refresh_catalog",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RefreshCatalogProcessor creates a processor function for RefreshCatalogTask.
func RefreshCatalogProcessor(client *source.Client, shelf *bookshelf.Repository) backlite.QueueProcessor[RefreshCatalogTask] {
	return func(ctx context.Context, task RefreshCatalogTask) error {
		chapters, err := client.ChapterList(ctx, task.BookURL, true)
		if err != nil {
			return fmt.Errorf("refresh catalog for %s: %w", task.BookURL, err)
		}
		if len(chapters) == 0 {
			log.Printf("[TASK] Catalog refresh for %s returned no chapters, keeping previous info", task.BookURL)
			return nil
		}

		latest := chapters[len(chapters)-1].Title
		if err := shelf.UpdateCatalogInfo(task.BookURL, len(chapters), latest); err != nil {
			return fmt.Errorf("update catalog info for %s: %w", task.BookURL, err)
		}

		log.Printf("[TASK] Refreshed catalog for %s: %d chapters, latest %q",
			task.BookURL, len(chapters), latest)
		return nil
	}
}

// NewRefreshCatalogQueue creates a backlite queue for catalog refresh tasks.
func NewRefreshCatalogQueue(client *source.Client, shelf *bookshelf.Repository) backlite.Queue {
	return backlite.NewQueue(RefreshCatalogProcessor(client, shelf))
}
