package reading

import "context"

// Chapter is one catalog entry: a zero-based, contiguous index plus a title.
// Indices are stable for a session; an explicit catalog refresh may change
// the catalog length.
type Chapter struct {
	Index int    `json:"index"`
	Title string `json:"title"`
}

// Book is the read-only view of a bookshelf entry the session works with.
type Book struct {
	URL           string `json:"bookUrl"`
	Name          string `json:"name"`
	Author        string `json:"author"`
	LastReadIndex int    `json:"lastReadIndex"`
	TotalChapters int    `json:"totalChapters"`
	LatestChapter string `json:"latestChapter"`
}

// Fetcher is the upstream content collaborator. Implementations own their own
// timeout and retry policy; the session surfaces whatever failure it receives.
type Fetcher interface {
	// ChapterList returns the ordered catalog for a book. forceRefresh
	// bypasses any upstream catalog cache.
	ChapterList(ctx context.Context, bookURL string, forceRefresh bool) ([]Chapter, error)

	// ChapterContent returns the raw text of one chapter.
	ChapterContent(ctx context.Context, bookURL string, index int) (string, error)
}
