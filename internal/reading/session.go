package reading

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is the coarse lifecycle state of a session. LoadingMore is tracked
// separately because it only guards the infinite-scroll append path and must
// not block chapter navigation.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateError   State = "error"
)

// LoadedChapter is one entry of the infinite-scroll window.
type LoadedChapter struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Options selects the optional capabilities of a session. The zero value
// enables prefetch with the default depth and disables health annotation and
// content transformation.
type Options struct {
	// Health annotates loaded content with delivery-problem warnings.
	// Nil disables the check.
	Health *HealthChecker

	// Quality reports network quality for adaptive prefetch sizing.
	// Nil means the signal is unavailable and the default depth applies.
	Quality QualityFunc

	// Transform rewrites chapter text before display (replace rules).
	// The cache always stores raw upstream text.
	Transform func(string) string

	// DisablePrefetch turns off background read-ahead entirely.
	DisablePrefetch bool
}

// Session orchestrates chapter delivery for one reading session: it owns the
// current book, its catalog, the per-session chapter cache, the current
// (anchored) chapter and the infinite-scroll window.
//
// All exported methods are safe for concurrent use. The mutex is released
// across upstream fetches; results are applied only when the session epoch
// (bumped by OpenBook and Reset) and the target index still match, so a
// resolution that raced a navigation or a book change is discarded instead of
// clobbering newer state.
type Session struct {
	fetcher Fetcher
	opts    Options

	mu          sync.Mutex
	epoch       uint64
	book        *Book
	catalog     []Chapter
	index       int
	content     string
	issue       *Issue
	window      []LoadedChapter
	cache       *Cache
	state       State
	errCategory ErrorCategory
	errMessage  string
	loadingMore bool

	prefetchWG sync.WaitGroup
}

// Snapshot is the observable surface exposed to the presentation layer.
type Snapshot struct {
	Book            *Book           `json:"book"`
	Catalog         []Chapter       `json:"catalog"`
	CurrentIndex    int             `json:"currentIndex"`
	Content         string          `json:"content"`
	ContentIssue    *Issue          `json:"contentIssue,omitempty"`
	LoadedChapters  []LoadedChapter `json:"loadedChapters"`
	State           State           `json:"state"`
	IsLoading       bool            `json:"isLoading"`
	IsLoadingMore   bool            `json:"isLoadingMore"`
	Error           string          `json:"error,omitempty"`
	ErrorCategory   ErrorCategory   `json:"errorCategory,omitempty"`
	TotalChapters   int             `json:"totalChapters"`
	HasNext         bool            `json:"hasNext"`
	HasPrev         bool            `json:"hasPrev"`
	ProgressPercent float64         `json:"progressPercent"`
}

// NewSession creates an idle session around an upstream fetcher.
func NewSession(fetcher Fetcher, opts Options) *Session {
	return &Session{
		fetcher: fetcher,
		opts:    opts,
		cache:   NewCache(),
		state:   StateIdle,
	}
}

// OpenBook starts a new session for book: the cache and window are cleared,
// the catalog is fetched, and the book's last-read chapter (clamped to
// catalog bounds) is loaded. On catalog failure the session enters the error
// state but keeps the book reference so a retry can reuse it.
func (s *Session) OpenBook(ctx context.Context, book Book) error {
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	b := book
	s.book = &b
	s.catalog = nil
	s.index = 0
	s.content = ""
	s.issue = nil
	s.window = nil
	s.cache = NewCache()
	s.state = StateLoading
	s.errCategory = ""
	s.errMessage = ""
	s.loadingMore = false
	s.mu.Unlock()

	chapters, err := s.fetcher.ChapterList(ctx, book.URL, false)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil
	}
	if err == nil && len(chapters) == 0 {
		err = errors.New("source returned empty catalog, parse failure")
	}
	if err != nil {
		s.setErrorLocked(err)
		s.mu.Unlock()
		return fmt.Errorf("fetch catalog: %w", err)
	}
	s.catalog = chapters
	index := clamp(book.LastReadIndex, 0, len(chapters)-1)
	s.index = index
	s.state = StateIdle
	s.mu.Unlock()

	return s.loadChapterAtEpoch(ctx, index, epoch)
}

// LoadChapter navigates to a chapter by index. Out-of-range indices are a
// no-op. The current index is updated before the fetch resolves so the UI
// reflects the target chapter immediately; cache hits apply synchronously
// with no loading transition.
func (s *Session) LoadChapter(ctx context.Context, index int) error {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()
	return s.loadChapterAtEpoch(ctx, index, epoch)
}

// loadChapterAtEpoch is the guarded load path behind LoadChapter and the
// navigation tails of OpenBook and RefreshChapter. Callers capture epoch under
// the lock earlier in their operation; a session reset or reopened in the gap
// before this re-lock fails the epoch check and nothing is applied.
func (s *Session) loadChapterAtEpoch(ctx context.Context, index int, epoch uint64) error {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil
	}
	if s.book == nil {
		s.mu.Unlock()
		return ErrNoBook
	}
	if index < 0 || index >= len(s.catalog) {
		s.mu.Unlock()
		return nil
	}
	s.index = index

	if text, ok := s.cache.Get(index); ok {
		s.applyContentLocked(index, text)
		s.mu.Unlock()
		s.schedulePrefetch(index+1, epoch)
		return nil
	}

	s.state = StateLoading
	s.errCategory = ""
	s.errMessage = ""
	bookURL := s.book.URL
	cache := s.cache
	s.mu.Unlock()

	text, err := s.fetcher.ChapterContent(ctx, bookURL, index)

	s.mu.Lock()
	if s.epoch != epoch {
		// Session was reset or reopened while the fetch was in flight.
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		if s.index == index {
			s.setErrorLocked(err)
		}
		s.mu.Unlock()
		return fmt.Errorf("fetch chapter %d: %w", index, err)
	}
	cache.Put(index, text)
	if s.index == index {
		s.applyContentLocked(index, text)
	}
	s.mu.Unlock()

	s.schedulePrefetch(index+1, epoch)
	return nil
}

// NextChapter advances to the following chapter; no-op at the catalog end.
func (s *Session) NextChapter(ctx context.Context) error {
	s.mu.Lock()
	index := s.index + 1
	s.mu.Unlock()
	return s.LoadChapter(ctx, index)
}

// PrevChapter goes back one chapter; no-op at the catalog start.
func (s *Session) PrevChapter(ctx context.Context) error {
	s.mu.Lock()
	index := s.index - 1
	s.mu.Unlock()
	return s.LoadChapter(ctx, index)
}

// GoToChapter jumps to an arbitrary chapter, for catalog navigation. It
// completes the load before returning so callers can chain a scroll reset.
func (s *Session) GoToChapter(ctx context.Context, index int) error {
	return s.LoadChapter(ctx, index)
}

// AppendNextChapter extends the infinite-scroll window by one chapter past
// its current maximum, independent of the anchored index. It reports whether
// an append happened so the scroll listener can stop polling at end-of-book.
// Failures leave the window untouched and never enter the session error
// state; the chapter stays uncached for a later on-demand fetch.
func (s *Session) AppendNextChapter(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.book == nil || len(s.catalog) == 0 || len(s.window) == 0 || s.loadingMore {
		s.mu.Unlock()
		return false, nil
	}
	maxIndex := s.window[len(s.window)-1].Index
	if maxIndex >= len(s.catalog)-1 {
		s.mu.Unlock()
		return false, nil
	}
	target := maxIndex + 1
	epoch := s.epoch
	s.loadingMore = true
	bookURL := s.book.URL
	cache := s.cache

	if text, ok := cache.Get(target); ok {
		s.appendLocked(target, text)
		s.loadingMore = false
		s.mu.Unlock()
		s.schedulePrefetch(target+1, epoch)
		return true, nil
	}
	s.mu.Unlock()

	text, err := s.fetcher.ChapterContent(ctx, bookURL, target)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false, nil
	}
	s.loadingMore = false
	if err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("fetch chapter %d: %w", target, err)
	}
	cache.Put(target, text)
	// While the fetch was in flight the window may have been reset by a
	// navigation, or the catalog shortened past target by a refresh. The
	// result stays cached but is only appended when target still exists in
	// the catalog and directly follows the window's maximum.
	if target < len(s.catalog) && len(s.window) > 0 && s.window[len(s.window)-1].Index == target-1 {
		s.appendLocked(target, text)
		s.mu.Unlock()
		s.schedulePrefetch(target+1, epoch)
		return true, nil
	}
	s.mu.Unlock()
	return false, nil
}

// InitInfiniteScroll resets the window to a single entry for the currently
// anchored chapter. Callers invoke it after any non-append navigation so the
// window never mixes chapters from two navigation contexts.
func (s *Session) InitInfiniteScroll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.book == nil || len(s.catalog) == 0 {
		s.window = nil
		return
	}
	s.window = []LoadedChapter{{
		Index:   s.index,
		Title:   s.catalog[s.index].Title,
		Content: s.content,
	}}
}

// RefreshChapter re-fetches the catalog (bypassing any upstream catalog
// cache), invalidates only the current chapter's cache entry and reloads it.
// Other cached chapters stay valid.
func (s *Session) RefreshChapter(ctx context.Context) error {
	s.mu.Lock()
	if s.book == nil {
		s.mu.Unlock()
		return ErrNoBook
	}
	epoch := s.epoch
	s.state = StateLoading
	s.errCategory = ""
	s.errMessage = ""
	bookURL := s.book.URL
	s.cache.Invalidate(s.index)
	s.mu.Unlock()

	chapters, err := s.fetcher.ChapterList(ctx, bookURL, true)

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return nil
	}
	if err == nil && len(chapters) == 0 {
		err = errors.New("source returned empty catalog, parse failure")
	}
	if err != nil {
		s.setErrorLocked(err)
		s.mu.Unlock()
		return fmt.Errorf("refresh catalog: %w", err)
	}
	s.catalog = chapters
	index := clamp(s.index, 0, len(chapters)-1)
	s.index = index
	s.mu.Unlock()

	return s.loadChapterAtEpoch(ctx, index, epoch)
}

// Reset tears the session down. Idempotent; any in-flight fetch or prefetch
// resolution is discarded via the epoch bump.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.book = nil
	s.catalog = nil
	s.index = 0
	s.content = ""
	s.issue = nil
	s.window = nil
	s.cache = NewCache()
	s.state = StateIdle
	s.errCategory = ""
	s.errMessage = ""
	s.loadingMore = false
}

// Snapshot returns a consistent copy of the observable session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		CurrentIndex:  s.index,
		Content:       s.content,
		ContentIssue:  s.issue,
		State:         s.state,
		IsLoading:     s.state == StateLoading,
		IsLoadingMore: s.loadingMore,
		Error:         s.errMessage,
		ErrorCategory: s.errCategory,
		TotalChapters: len(s.catalog),
	}
	if s.book != nil {
		b := *s.book
		snap.Book = &b
	}
	snap.Catalog = append([]Chapter(nil), s.catalog...)
	snap.LoadedChapters = append([]LoadedChapter(nil), s.window...)
	if total := len(s.catalog); total > 0 {
		snap.HasNext = s.index < total-1
		snap.HasPrev = s.index > 0
		snap.ProgressPercent = float64(s.index+1) / float64(total) * 100
	}
	return snap
}

// CurrentIndex returns the anchored chapter index.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Cache exposes the session cache for inspection.
func (s *Session) Cache() *Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache
}

// applyContentLocked sets the displayed content for index and everything
// derived from it: health annotation (always recomputed, cache hit or miss),
// a fresh single-entry scroll window anchored at index, and the idle state.
func (s *Session) applyContentLocked(index int, raw string) {
	display := raw
	if s.opts.Transform != nil {
		display = s.opts.Transform(raw)
	}
	s.content = display
	if s.opts.Health != nil {
		s.issue = s.opts.Health.Classify(raw)
	} else {
		s.issue = nil
	}
	s.window = []LoadedChapter{{
		Index:   index,
		Title:   s.catalog[index].Title,
		Content: display,
	}}
	s.state = StateIdle
	s.errCategory = ""
	s.errMessage = ""
}

// appendLocked adds a chapter to the scroll window. Callers have already
// verified target follows the window maximum, so indices stay strictly
// increasing and duplicate-free.
func (s *Session) appendLocked(index int, raw string) {
	display := raw
	if s.opts.Transform != nil {
		display = s.opts.Transform(raw)
	}
	s.window = append(s.window, LoadedChapter{
		Index:   index,
		Title:   s.catalog[index].Title,
		Content: display,
	})
}

func (s *Session) setErrorLocked(err error) {
	category, message := TranslateError(err)
	s.state = StateError
	s.errCategory = category
	s.errMessage = message
}

// schedulePrefetch warms the cache with chapters [from, from+depth) on a
// background goroutine. Depth is recomputed from the network-quality signal
// on every call. Individual failures are swallowed: a failed prefetch just
// leaves that index uncached for a later on-demand fetch.
func (s *Session) schedulePrefetch(from int, epoch uint64) {
	if s.opts.DisablePrefetch {
		return
	}

	quality := QualityUnknown
	if s.opts.Quality != nil {
		quality = s.opts.Quality()
	}
	depth := PrefetchDepth(quality)

	s.mu.Lock()
	if s.epoch != epoch || s.book == nil {
		s.mu.Unlock()
		return
	}
	bookURL := s.book.URL
	cache := s.cache
	total := len(s.catalog)
	s.mu.Unlock()

	end := from + depth
	if end > total {
		end = total
	}
	if from >= end {
		return
	}

	s.prefetchWG.Add(1)
	go func() {
		defer s.prefetchWG.Done()
		for i := from; i < end; i++ {
			if s.staleEpoch(epoch) {
				return
			}
			if _, ok := cache.Get(i); ok {
				continue
			}
			text, err := s.fetcher.ChapterContent(context.Background(), bookURL, i)
			if err != nil {
				continue
			}
			if s.staleEpoch(epoch) {
				return
			}
			cache.Put(i, text)
		}
	}()
}

func (s *Session) staleEpoch(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch != epoch
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
