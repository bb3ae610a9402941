package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"github.com/lysyi3m/jsonfeed-comb/app/database"
	"github.com/lysyi3m/jsonfeed-comb/app/feed"
	"github.com/lysyi3m/jsonfeed-comb/app/jsonfeed"
	"github.com/lysyi3m/jsonfeed-comb/app/tasks"
)

const maxValidateBodySize = 10 << 20

func NewHandler(configCache *feed.ConfigCache, feedRepo database.FeedRepository,
	itemRepo database.ItemRepository, parser *feed.Parser, filterer *feed.Filterer,
	scheduler tasks.TaskSchedulerInterface, cacheTTL time.Duration) *Handler {
	h := &Handler{
		feedRepo:    feedRepo,
		itemRepo:    itemRepo,
		generator:   feed.NewGenerator(),
		parser:      parser,
		configCache: configCache,
		filterer:    filterer,
		scheduler:   scheduler,
	}

	if cacheTTL > 0 {
		h.rssCache = cache.New(cacheTTL, 2*cacheTTL)
	}

	return h
}

func (h *Handler) GetFeed(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	feedConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Debug("Feed configuration not found", "feed", name, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	if h.rssCache != nil {
		if cached, ok := h.rssCache.Get(name); ok {
			h.writeFeed(c, name, cached.(renderedFeed))
			return
		}
	}

	dbFeed, err := h.feedRepo.GetFeed(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if dbFeed == nil {
		slog.Warn("Feed not found in database", "feed", name)
		c.Status(http.StatusNotFound)
		return
	}

	items, err := h.itemRepo.GetVisibleItems(name, feedConfig.Settings.MaxItems)
	if err != nil {
		slog.Error("Database error", "operation", "get_items", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(*dbFeed, items)
	if err != nil {
		slog.Error("RSS generation error", "feed", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rendered := renderedFeed{body: rss, itemCount: len(items), updatedAt: dbFeed.UpdatedAt}
	if h.rssCache != nil {
		h.rssCache.SetDefault(name, rendered)
	}

	h.writeFeed(c, name, rendered)
}

func (h *Handler) writeFeed(c *gin.Context, name string, rendered renderedFeed) {
	c.Header("X-Feed-Items", strconv.Itoa(rendered.itemCount))
	c.Header("X-Feed-Name", name)
	c.Header("X-Last-Updated", rendered.updatedAt.Format(time.RFC3339))

	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(rendered.body))
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

// Validate decodes the request body as a JSON Feed without storing it
func (h *Handler) Validate(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxValidateBodySize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	metadata, items, err := h.parser.Run(data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, validationError(err))
		return
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.GUID)
	}

	c.JSON(http.StatusOK, ValidationResult{
		Valid:   true,
		Version: metadata.Version,
		Title:   metadata.Title,
		Expired: metadata.Expired,
		Items:   len(items),
		IDs:     ids,
	})
}

func validationError(err error) ValidationError {
	var decodeErr *jsonfeed.DecodeError
	if errors.As(err, &decodeErr) {
		return ValidationError{
			Error:   decodeErr.Code(),
			Path:    decodeErr.Path,
			Message: decodeErr.Error(),
		}
	}

	if errors.Is(err, feed.ErrNotJSONFeed) {
		return ValidationError{Error: "not_json_feed", Message: err.Error()}
	}

	return ValidationError{Error: "unknown", Message: err.Error()}
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	feeds := make([]map[string]interface{}, 0, len(configs))

	for _, feedConfig := range configs {
		feedInfo := map[string]interface{}{
			"name":             feedConfig.Name,
			"url":              feedConfig.URL,
			"title":            "",
			"enabled":          feedConfig.Settings.Enabled,
			"max_items":        feedConfig.Settings.MaxItems,
			"refresh_interval": (time.Duration(feedConfig.Settings.RefreshInterval) * time.Second).String(),
			"filters":          len(feedConfig.Filters),
		}

		if dbFeed, err := h.feedRepo.GetFeed(feedConfig.Name); err == nil && dbFeed != nil {
			feedInfo["title"] = dbFeed.Title
			feedInfo["version"] = dbFeed.Version
			feedInfo["expired"] = dbFeed.Expired
			feedInfo["last_fetched_at"] = dbFeed.LastFetchedAt
			feedInfo["next_fetch_at"] = dbFeed.NextFetchAt
			feedInfo["updated_at"] = dbFeed.UpdatedAt
		}

		if itemCount, err := h.itemRepo.GetItemCount(feedConfig.Name); err == nil {
			feedInfo["item_count"] = itemCount
		}

		feeds = append(feeds, feedInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIGetFeedDetails(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed name parameter"})
		return
	}

	feedConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Debug("Feed configuration not found", "feed", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	dbFeed, err := h.feedRepo.GetFeed(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if dbFeed == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found in database"})
		return
	}

	details := map[string]interface{}{
		"name":             name,
		"url":              feedConfig.URL,
		"title":            dbFeed.Title,
		"enabled":          feedConfig.Settings.Enabled,
		"max_items":        feedConfig.Settings.MaxItems,
		"refresh_interval": (time.Duration(feedConfig.Settings.RefreshInterval) * time.Second).String(),
		"timeout":          (time.Duration(feedConfig.Settings.Timeout) * time.Second).String(),
		"filters":          feedConfig.Filters,
	}

	details["document"] = map[string]interface{}{
		"version":       dbFeed.Version,
		"home_page_url": dbFeed.Link,
		"feed_url":      dbFeed.SelfURL,
		"next_url":      dbFeed.NextURL,
		"description":   dbFeed.Description,
		"icon":          dbFeed.IconURL,
		"author":        dbFeed.Author,
		"expired":       dbFeed.Expired,
	}

	details["database"] = map[string]interface{}{
		"id":              dbFeed.ID,
		"name":            dbFeed.Name,
		"last_fetched_at": dbFeed.LastFetchedAt,
		"next_fetch_at":   dbFeed.NextFetchAt,
		"created_at":      dbFeed.CreatedAt,
		"updated_at":      dbFeed.UpdatedAt,
	}

	if total, visible, filtered, err := h.itemRepo.GetItemStats(name); err == nil {
		details["items"] = map[string]interface{}{
			"total":    total,
			"visible":  visible,
			"filtered": filtered,
		}
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIReloadFeed(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed name parameter"})
		return
	}

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Debug("Feed configuration not found", "feed", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	dbFeed, err := h.feedRepo.GetFeed(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if dbFeed == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found in database"})
		return
	}

	feedConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncFeedTask := tasks.NewSyncFeedConfigTask(name, feedConfig, h.feedRepo)
	if err := h.scheduler.EnqueueTask(syncFeedTask); err != nil {
		slog.Error("Error enqueueing sync task", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	refilterFeedTask := tasks.NewRefilterFeedTask(name, feedConfig, h.filterer, h.itemRepo)
	if err := h.scheduler.EnqueueTask(refilterFeedTask); err != nil {
		slog.Error("Error enqueueing refilter task", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue refilter task",
			"details": err.Error(),
		})
		return
	}

	if h.rssCache != nil {
		h.rssCache.Delete(name)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded and tasks enqueued successfully",
		"feed": gin.H{
			"name":  name,
			"title": dbFeed.Title,
			"url":   feedConfig.URL,
		},
		"tasks": []gin.H{
			{
				"id":   syncFeedTask.ID,
				"type": syncFeedTask.Type,
			},
			{
				"id":   refilterFeedTask.ID,
				"type": refilterFeedTask.Type,
			},
		},
	})
}
