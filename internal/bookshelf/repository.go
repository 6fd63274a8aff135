// Package bookshelf persists the user's shelf: which books they follow and
// how far they have read. The reading engine holds only a read-only view of
// a shelf entry; position updates flow back through SaveProgress.
package bookshelf

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/reader/internal/entities"
)

// ErrNotFound is returned when a book is not on the shelf.
var ErrNotFound = errors.New("bookshelf: book not found")

// Repository handles all bookshelf database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new bookshelf repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListBooks returns the whole shelf, most recently read first.
func (r *Repository) ListBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("last_read_at DESC NULLS LAST, created_at DESC").Find(&books).Error
	return books, err
}

// GetByURL returns the shelf entry for a book URL.
func (r *Repository) GetByURL(bookURL string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("book_url = ?", bookURL).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// AddBook puts a book on the shelf. Adding a book that is already shelved
// updates its metadata and keeps the reading progress.
func (r *Repository) AddBook(book *entities.Book) error {
	existing, err := r.GetByURL(book.BookURL)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing != nil {
		book.ID = existing.ID
		book.LastReadIndex = existing.LastReadIndex
		book.LastReadTitle = existing.LastReadTitle
		book.LastReadAt = existing.LastReadAt
		book.CreatedAt = existing.CreatedAt
		return r.db.Save(book).Error
	}
	return r.db.Create(book).Error
}

// DeleteBook removes a book from the shelf.
func (r *Repository) DeleteBook(bookURL string) error {
	result := r.db.Where("book_url = ?", bookURL).Delete(&entities.Book{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveProgress records the last-read chapter for a book. This is the only
// persistence of reading position; chapter cache contents are never stored.
func (r *Repository) SaveProgress(bookURL string, index int, title string) error {
	now := time.Now()
	result := r.db.Model(&entities.Book{}).
		Where("book_url = ?", bookURL).
		Updates(map[string]any{
			"last_read_index": index,
			"last_read_title": title,
			"last_read_at":    now,
		})
	if result.Error != nil {
		return fmt.Errorf("save progress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateCatalogInfo records the result of a catalog refresh: total chapter
// count and the latest chapter title, used by the shelf "new chapters" badge.
func (r *Repository) UpdateCatalogInfo(bookURL string, totalChapters int, latestChapter string) error {
	now := time.Now()
	result := r.db.Model(&entities.Book{}).
		Where("book_url = ?", bookURL).
		Updates(map[string]any{
			"total_chapters":  totalChapters,
			"latest_chapter":  latestChapter,
			"catalog_updated": now,
		})
	if result.Error != nil {
		return fmt.Errorf("update catalog info: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
