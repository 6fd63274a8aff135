// Package scheduler runs the periodic shelf update check: on a cron schedule
// it enqueues a catalog refresh task for every shelved book.
package scheduler

import (
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/reader/internal/bookshelf"
	"github.com/mrlokans/reader/internal/tasks"
)

// ShelfRefreshScheduler manages the periodic catalog refresh of all shelf books.
type ShelfRefreshScheduler struct {
	shelf      *bookshelf.Repository
	taskClient *tasks.Client
	schedule   string

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.Mutex
	isRunning bool
}

// NewShelfRefreshScheduler creates a scheduler that enqueues refresh tasks on
// the given cron schedule.
func NewShelfRefreshScheduler(shelf *bookshelf.Repository, taskClient *tasks.Client, schedule string) *ShelfRefreshScheduler {
	return &ShelfRefreshScheduler{
		shelf:      shelf,
		taskClient: taskClient,
		schedule:   schedule,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the schedule. Idempotent.
func (s *ShelfRefreshScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.runRefresh)
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true
	log.Printf("Shelf refresh scheduler: started with schedule '%s'", s.schedule)
	return nil
}

// Stop halts the schedule; a refresh already enqueued keeps running in the
// task queue.
func (s *ShelfRefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	s.cron.Remove(s.entryID)
	s.cron.Stop()
	s.isRunning = false
	log.Printf("Shelf refresh scheduler: stopped")
}

// runRefresh enqueues one catalog refresh task per shelf book.
func (s *ShelfRefreshScheduler) runRefresh() {
	books, err := s.shelf.ListBooks()
	if err != nil {
		log.Printf("Shelf refresh: failed to list books: %v", err)
		return
	}
	if len(books) == 0 {
		return
	}

	enqueued := 0
	for _, book := range books {
		_, err := s.taskClient.Add(tasks.RefreshCatalogTask{BookURL: book.BookURL}).Save()
		if err != nil {
			log.Printf("Shelf refresh: failed to enqueue refresh for %s: %v", book.BookURL, err)
			continue
		}
		enqueued++
	}
	log.Printf("Shelf refresh: enqueued %d catalog refresh tasks", enqueued)
}
