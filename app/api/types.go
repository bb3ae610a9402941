package api

import (
	"time"

	"github.com/lysyi3m/jsonfeed-comb/app/database"
	"github.com/lysyi3m/jsonfeed-comb/app/feed"
	"github.com/lysyi3m/jsonfeed-comb/app/tasks"
	"github.com/patrickmn/go-cache"
)

type GeneratorInterface interface {
	Run(feed database.Feed, items []database.Item) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type Handler struct {
	feedRepo    database.FeedRepository
	itemRepo    database.ItemRepository
	generator   GeneratorInterface
	parser      *feed.Parser
	configCache *feed.ConfigCache
	filterer    *feed.Filterer
	scheduler   tasks.TaskSchedulerInterface
	rssCache    *cache.Cache // nil when caching is disabled
}

// renderedFeed is a generated RSS document kept in rssCache
type renderedFeed struct {
	body      string
	itemCount int
	updatedAt time.Time
}

// ValidationResult summarizes a document accepted by POST /validate
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Version string   `json:"version"`
	Title   string   `json:"title"`
	Expired bool     `json:"expired"`
	Items   int      `json:"items"`
	IDs     []string `json:"ids"`
}

// ValidationError describes why POST /validate rejected a document
type ValidationError struct {
	Error   string `json:"error"`
	Path    string `json:"path"`
	Message string `json:"message"`
}
