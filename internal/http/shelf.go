package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/reader/internal/bookshelf"
	"github.com/mrlokans/reader/internal/entities"
	"github.com/mrlokans/reader/internal/source"
)

// ShelfController manages the persisted bookshelf.
type ShelfController struct {
	shelf  *bookshelf.Repository
	source *source.Client
}

func NewShelfController(shelf *bookshelf.Repository, sourceClient *source.Client) *ShelfController {
	return &ShelfController{
		shelf:  shelf,
		source: sourceClient,
	}
}

type addBookRequest struct {
	BookURL string `json:"book_url" binding:"required"`
}

// ListBooks returns the whole shelf.
func (controller *ShelfController) ListBooks(c *gin.Context) {
	books, err := controller.shelf.ListBooks()
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// AddBook shelves a book by URL, pulling its metadata from the source API.
func (controller *ShelfController) AddBook(c *gin.Context) {
	var req addBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_url is required")
		return
	}

	info, err := controller.source.BookInfo(c.Request.Context(), req.BookURL)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondError(c, http.StatusBadGateway, "failed to fetch book info from source")
		return
	}

	book := &entities.Book{
		BookURL:       info.BookURL,
		Name:          info.Name,
		Author:        info.Author,
		CoverURL:      info.CoverURL,
		Intro:         info.Intro,
		Kind:          info.Kind,
		Origin:        info.Origin,
		OriginName:    info.OriginName,
		LatestChapter: info.LatestChapter,
	}
	if book.BookURL == "" {
		book.BookURL = req.BookURL
	}
	if err := controller.shelf.AddBook(book); err != nil {
		respondInternalError(c, err, "add book")
		return
	}
	respondCreated(c, book)
}

// DeleteBook removes a book from the shelf.
func (controller *ShelfController) DeleteBook(c *gin.Context) {
	bookURL := c.Query("url")
	if bookURL == "" {
		respondBadRequest(c, "url query parameter is required")
		return
	}
	if err := controller.shelf.DeleteBook(bookURL); err != nil {
		if errors.Is(err, bookshelf.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book removed from shelf")
}

// Search queries the source ecosystem for books.
func (controller *ShelfController) Search(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		respondBadRequest(c, "key query parameter is required")
		return
	}
	results, err := controller.source.SearchBooks(c.Request.Context(), key)
	if err != nil {
		respondError(c, http.StatusBadGateway, "source search failed")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}
