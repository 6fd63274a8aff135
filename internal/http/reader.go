package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/reader/internal/bookshelf"
	"github.com/mrlokans/reader/internal/reading"
)

// ReaderController exposes the reading engine over HTTP: one live session per
// open book, addressed by the session ID returned from Open.
type ReaderController struct {
	registry *SessionRegistry
	shelf    *bookshelf.Repository
}

func NewReaderController(registry *SessionRegistry, shelf *bookshelf.Repository) *ReaderController {
	return &ReaderController{
		registry: registry,
		shelf:    shelf,
	}
}

type openRequest struct {
	BookURL string `json:"book_url" binding:"required"`
}

type openResponse struct {
	SessionID string           `json:"session_id"`
	State     reading.Snapshot `json:"state"`
}

type gotoRequest struct {
	Index int `json:"index"`
}

type appendResponse struct {
	Appended bool             `json:"appended"`
	State    reading.Snapshot `json:"state"`
}

// Open starts a reading session for a shelved book at its last-read chapter.
func (controller *ReaderController) Open(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_url is required")
		return
	}

	book, err := controller.shelf.GetByURL(req.BookURL)
	if err != nil {
		if errors.Is(err, bookshelf.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "open reader")
		return
	}

	id, session := controller.registry.Open()
	err = session.OpenBook(c.Request.Context(), reading.Book{
		URL:           book.BookURL,
		Name:          book.Name,
		Author:        book.Author,
		LastReadIndex: book.LastReadIndex,
		TotalChapters: book.TotalChapters,
		LatestChapter: book.LatestChapter,
	})
	// Catalog failures are reflected in the snapshot's error state; the
	// session stays open so the client can retry via refresh.
	if err != nil {
		c.JSON(http.StatusBadGateway, openResponse{SessionID: id, State: session.Snapshot()})
		return
	}

	c.JSON(http.StatusOK, openResponse{SessionID: id, State: session.Snapshot()})
}

// State returns the current session snapshot.
func (controller *ReaderController) State(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// Next navigates to the following chapter.
func (controller *ReaderController) Next(c *gin.Context) {
	controller.navigate(c, func(session *reading.Session) error {
		return session.NextChapter(c.Request.Context())
	})
}

// Prev navigates to the previous chapter.
func (controller *ReaderController) Prev(c *gin.Context) {
	controller.navigate(c, func(session *reading.Session) error {
		return session.PrevChapter(c.Request.Context())
	})
}

// GoTo jumps to an arbitrary chapter index.
func (controller *ReaderController) GoTo(c *gin.Context) {
	var req gotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "index is required")
		return
	}
	controller.navigate(c, func(session *reading.Session) error {
		return session.GoToChapter(c.Request.Context(), req.Index)
	})
}

// Append extends the infinite-scroll window by one chapter.
func (controller *ReaderController) Append(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}
	appended, err := session.AppendNextChapter(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, appendResponse{Appended: false, State: session.Snapshot()})
		return
	}
	c.JSON(http.StatusOK, appendResponse{Appended: appended, State: session.Snapshot()})
}

// ScrollReset restarts the infinite-scroll window from the anchored chapter.
func (controller *ReaderController) ScrollReset(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}
	session.InitInfiniteScroll()
	c.JSON(http.StatusOK, session.Snapshot())
}

// Refresh re-fetches the catalog and the current chapter.
func (controller *ReaderController) Refresh(c *gin.Context) {
	controller.navigate(c, func(session *reading.Session) error {
		return session.RefreshChapter(c.Request.Context())
	})
}

// SaveProgress persists the session's anchored chapter to the bookshelf.
func (controller *ReaderController) SaveProgress(c *gin.Context) {
	session, ok := controller.session(c)
	if !ok {
		return
	}
	snap := session.Snapshot()
	if snap.Book == nil {
		respondBadRequest(c, "no book open in this session")
		return
	}
	title := ""
	if snap.CurrentIndex < len(snap.Catalog) {
		title = snap.Catalog[snap.CurrentIndex].Title
	}
	if err := controller.shelf.SaveProgress(snap.Book.URL, snap.CurrentIndex, title); err != nil {
		if errors.Is(err, bookshelf.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "save progress")
		return
	}
	respondSuccess(c, "progress saved")
}

// Close tears down a session.
func (controller *ReaderController) Close(c *gin.Context) {
	controller.registry.Close(c.Param("id"))
	respondSuccess(c, "session closed")
}

// navigate runs a session operation and returns the resulting snapshot.
// Upstream failures still return the snapshot: the session carries the
// translated, user-facing error state.
func (controller *ReaderController) navigate(c *gin.Context, op func(*reading.Session) error) {
	session, ok := controller.session(c)
	if !ok {
		return
	}
	if err := op(session); err != nil {
		c.JSON(http.StatusBadGateway, session.Snapshot())
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

func (controller *ReaderController) session(c *gin.Context) (*reading.Session, bool) {
	session, err := controller.registry.Get(c.Param("id"))
	if err != nil {
		respondNotFound(c, "reading session")
		return nil, false
	}
	return session, true
}
