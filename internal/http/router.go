package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/reader/internal/bookshelf"
	"github.com/mrlokans/reader/internal/database"
	"github.com/mrlokans/reader/internal/replace"
	"github.com/mrlokans/reader/internal/source"
)

// RouterConfig carries every dependency the router needs, so the whole
// surface can be assembled in tests without the entrypoint.
type RouterConfig struct {
	Database      *database.Database
	Shelf         *bookshelf.Repository
	SourceClient  *source.Client
	Rules         *replace.Repository
	ReplaceEngine *replace.Engine
	Registry      *SessionRegistry
	Version       string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	healthController := NewHealthController(cfg.Database, cfg.Registry, cfg.Version)
	shelfController := NewShelfController(cfg.Shelf, cfg.SourceClient)
	rulesController := NewRulesController(cfg.Rules, cfg.ReplaceEngine)
	readerController := NewReaderController(cfg.Registry, cfg.Shelf)

	router.GET("/health", healthController.Status)

	api := router.Group("/api")
	{
		api.GET("/books", shelfController.ListBooks)
		api.POST("/books", shelfController.AddBook)
		api.DELETE("/books", shelfController.DeleteBook)
		api.GET("/search", shelfController.Search)

		api.GET("/rules", rulesController.ListRules)
		api.POST("/rules", rulesController.CreateRule)
		api.PUT("/rules/:id", rulesController.UpdateRule)
		api.DELETE("/rules/:id", rulesController.DeleteRule)

		reader := api.Group("/reader")
		{
			reader.POST("/open", readerController.Open)
			reader.GET("/:id/state", readerController.State)
			reader.POST("/:id/next", readerController.Next)
			reader.POST("/:id/prev", readerController.Prev)
			reader.POST("/:id/goto", readerController.GoTo)
			reader.POST("/:id/append", readerController.Append)
			reader.POST("/:id/scroll-reset", readerController.ScrollReset)
			reader.POST("/:id/refresh", readerController.Refresh)
			reader.POST("/:id/progress", readerController.SaveProgress)
			reader.DELETE("/:id", readerController.Close)
		}
	}

	return router
}
