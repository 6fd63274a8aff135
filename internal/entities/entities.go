package entities

import (
	"time"

	"gorm.io/gorm"
)

// Book is one bookshelf entry. BookURL is the stable identity of a book
// within its source ecosystem; reading progress (last-read index and
// timestamp) is persisted here, separately from the in-memory reading
// session.
type Book struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	BookURL        string         `gorm:"uniqueIndex;size:2048" json:"book_url"`
	Name           string         `gorm:"index;size:512" json:"name"`
	Author         string         `gorm:"index;size:256" json:"author"`
	CoverURL       string         `gorm:"size:2048" json:"cover_url,omitempty"`
	Intro          string         `gorm:"type:text" json:"intro,omitempty"`
	Kind           string         `gorm:"size:128" json:"kind,omitempty"`
	Origin         string         `gorm:"size:512" json:"origin,omitempty"`
	OriginName     string         `gorm:"size:256" json:"origin_name,omitempty"`
	TotalChapters  int            `json:"total_chapters"`
	LatestChapter  string         `gorm:"size:512" json:"latest_chapter,omitempty"`
	LastReadIndex  int            `json:"last_read_index"`
	LastReadTitle  string         `gorm:"size:512" json:"last_read_title,omitempty"`
	LastReadAt     *time.Time     `json:"last_read_at,omitempty"`
	CatalogUpdated *time.Time     `json:"catalog_updated_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// ReplaceRule is one reading-rule replacement: a pattern applied to chapter
// text before display, for stripping ads and normalizing punctuation. Rules
// apply in SortOrder; the chapter cache always holds the raw upstream text.
type ReplaceRule struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:256" json:"name"`
	Pattern     string    `gorm:"size:2048" json:"pattern"`
	Replacement string    `gorm:"size:2048" json:"replacement"`
	IsRegex     bool      `json:"is_regex"`
	Enabled     bool      `gorm:"index" json:"enabled"`
	SortOrder   int       `gorm:"index" json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
