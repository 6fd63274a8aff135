package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/reader/internal/bookshelf"
	"github.com/mrlokans/reader/internal/database"
	"github.com/mrlokans/reader/internal/entities"
	"github.com/mrlokans/reader/internal/reading"
)

// stubFetcher serves a fixed ten-chapter book with generated content long
// enough to pass any health check.
type stubFetcher struct {
	contentErr error
}

func (f *stubFetcher) ChapterList(_ context.Context, _ string, _ bool) ([]reading.Chapter, error) {
	chapters := make([]reading.Chapter, 10)
	for i := range chapters {
		chapters[i] = reading.Chapter{Index: i, Title: fmt.Sprintf("第%d章", i+1)}
	}
	return chapters, nil
}

func (f *stubFetcher) ChapterContent(_ context.Context, _ string, index int) (string, error) {
	if f.contentErr != nil {
		return "", f.contentErr
	}
	return fmt.Sprintf("第%d章正文。", index+1) + strings.Repeat("夜色沉沉，风雪不止。", 10), nil
}

func setupReaderTest(t *testing.T) (*gin.Engine, *bookshelf.Repository, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_reader_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	shelf := bookshelf.NewRepository(db.DB)
	registry := NewSessionRegistry(func() *reading.Session {
		return reading.NewSession(&stubFetcher{}, reading.Options{DisablePrefetch: true})
	})
	controller := NewReaderController(registry, shelf)

	router := gin.New()
	api := router.Group("/api/reader")
	api.POST("/open", controller.Open)
	api.GET("/:id/state", controller.State)
	api.POST("/:id/next", controller.Next)
	api.POST("/:id/prev", controller.Prev)
	api.POST("/:id/goto", controller.GoTo)
	api.POST("/:id/append", controller.Append)
	api.POST("/:id/scroll-reset", controller.ScrollReset)
	api.POST("/:id/refresh", controller.Refresh)
	api.POST("/:id/progress", controller.SaveProgress)
	api.DELETE("/:id", controller.Close)

	cleanup := func() {
		registry.CloseAll()
		db.Close()
		os.Remove(dbPath)
	}
	return router, shelf, cleanup
}

func shelveTestBook(t *testing.T, shelf *bookshelf.Repository, lastRead int) string {
	t.Helper()
	book := &entities.Book{
		BookURL:       "https://example.com/book/1",
		Name:          "测试书",
		Author:        "测试作者",
		LastReadIndex: lastRead,
	}
	require.NoError(t, shelf.AddBook(book))
	if lastRead > 0 {
		require.NoError(t, shelf.SaveProgress(book.BookURL, lastRead, ""))
	}
	return book.BookURL
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, reader)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func openTestSession(t *testing.T, router *gin.Engine, bookURL string) (string, reading.Snapshot) {
	t.Helper()
	w := postJSON(router, "/api/reader/open", gin.H{"book_url": bookURL})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		SessionID string           `json:"session_id"`
		State     reading.Snapshot `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID, resp.State
}

func TestReaderController_OpenUnknownBook(t *testing.T) {
	router, _, cleanup := setupReaderTest(t)
	defer cleanup()

	w := postJSON(router, "/api/reader/open", gin.H{"book_url": "https://example.com/missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReaderController_OpenMissingURL(t *testing.T) {
	router, _, cleanup := setupReaderTest(t)
	defer cleanup()

	w := postJSON(router, "/api/reader/open", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReaderController_OpenResumesAtLastRead(t *testing.T) {
	router, shelf, cleanup := setupReaderTest(t)
	defer cleanup()
	bookURL := shelveTestBook(t, shelf, 4)

	_, state := openTestSession(t, router, bookURL)
	assert.Equal(t, 4, state.CurrentIndex)
	assert.Contains(t, state.Content, "第5章正文")
	assert.Equal(t, 10, state.TotalChapters)
	assert.Len(t, state.LoadedChapters, 1)
}

func TestReaderController_NextAndPrev(t *testing.T) {
	router, shelf, cleanup := setupReaderTest(t)
	defer cleanup()
	bookURL := shelveTestBook(t, shelf, 0)
	id, _ := openTestSession(t, router, bookURL)

	w := postJSON(router, "/api/reader/"+id+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state reading.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, 1, state.CurrentIndex)

	w = postJSON(router, "/api/reader/"+id+"/prev", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, 0, state.CurrentIndex)
}

func TestReaderController_GoTo(t *testing.T) {
	router, shelf, cleanup := setupReaderTest(t)
	defer cleanup()
	bookURL := shelveTestBook(t, shelf, 0)
	id, _ := openTestSession(t, router, bookURL)

	w := postJSON(router, "/api/reader/"+id+"/goto", gin.H{"index": 7})
	require.Equal(t, http.StatusOK, w.Code)
	var state reading.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, 7, state.CurrentIndex)
	assert.Contains(t, state.Content, "第8章正文")
}

func TestReaderController_AppendExtendsWindow(t *testing.T) {
	router, shelf, cleanup := setupReaderTest(t)
	defer cleanup()
	bookURL := shelveTestBook(t, shelf, 0)
	id, _ := openTestSession(t, router, bookURL)

	w := postJSON(router, "/api/reader/"+id+"/append", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Appended bool             `json:"appended"`
		State    reading.Snapshot `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Appended)
	require.Len(t, resp.State.LoadedChapters, 2)
	assert.Equal(t, 1, resp.State.LoadedChapters[1].Index)
	// The anchored chapter does not move on append.
	assert.Equal(t, 0, resp.State.CurrentIndex)
}

func TestReaderController_ScrollReset(t *testing.T) {
	router, shelf, cleanup := setupReaderTest(t)
	defer cleanup()
	bookURL := shelveTestBook(t, shelf, 0)
	id, _ := openTestSession(t, router, bookURL)

	postJSON(router, "/api/reader/"+id+"/append", nil)
	w := postJSON(router, "/api/reader/"+id+"/scroll-reset", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var state reading.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Len(t, state.LoadedChapters, 1)
	assert.Equal(t, 0, state.LoadedChapters[0].Index)
}

func TestReaderController_SaveProgress(t *testing.T) {
	router, shelf, cleanup := setupReaderTest(t)
	defer cleanup()
	bookURL := shelveTestBook(t, shelf, 0)
	id, _ := openTestSession(t, router, bookURL)

	postJSON(router, "/api/reader/"+id+"/goto", gin.H{"index": 3})
	w := postJSON(router, "/api/reader/"+id+"/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)

	book, err := shelf.GetByURL(bookURL)
	require.NoError(t, err)
	assert.Equal(t, 3, book.LastReadIndex)
	assert.Equal(t, "第4章", book.LastReadTitle)
}

func TestReaderController_CloseSession(t *testing.T) {
	router, shelf, cleanup := setupReaderTest(t)
	defer cleanup()
	bookURL := shelveTestBook(t, shelf, 0)
	id, _ := openTestSession(t, router, bookURL)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/api/reader/"+id, nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/reader/"+id+"/state", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReaderController_StateUnknownSession(t *testing.T) {
	router, _, cleanup := setupReaderTest(t)
	defer cleanup()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/reader/unknown/state", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
