package tasks

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lysyi3m/jsonfeed-comb/app/database"
	"github.com/lysyi3m/jsonfeed-comb/app/feed"
	"github.com/lysyi3m/jsonfeed-comb/app/jsonfeed"
)

// Feeds larger than this are rejected before decoding
const maxFeedSize = 10 << 20

type ProcessFeedTask struct {
	Task
	FeedConfig *feed.Config
	httpClient *http.Client
	parser     *feed.Parser
	filterer   *feed.Filterer
	feedRepo   database.FeedRepository
	itemRepo   database.ItemRepository
	userAgent  string
}

func NewProcessFeedTask(feedName string, feedConfig *feed.Config, httpClient *http.Client, parser *feed.Parser, filterer *feed.Filterer, feedRepo database.FeedRepository, itemRepo database.ItemRepository, userAgent string) *ProcessFeedTask {
	return &ProcessFeedTask{
		Task:       NewTask(TaskTypeProcessFeed, feedName),
		FeedConfig: feedConfig,
		httpClient: httpClient,
		parser:     parser,
		filterer:   filterer,
		feedRepo:   feedRepo,
		itemRepo:   itemRepo,
		userAgent:  userAgent,
	}
}

func (t *ProcessFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.FeedConfig.Settings.Enabled {
		slog.Debug("Feed disabled, skipping", "feed", t.FeedName)
		return nil
	}

	data, err := t.fetchFeed(ctx, t.FeedConfig.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	metadata, items, err := t.parser.Run(data)
	if err != nil {
		return t.handleParseError(err)
	}

	if err := t.storeFeedMetadata(metadata); err != nil {
		return fmt.Errorf("failed to store feed metadata: %w", err)
	}

	duplicateCount := 0
	filteredCount := 0
	newCount := 0

	if len(items) > 0 {
		var nonDuplicateItems []feed.Item
		for _, item := range items {
			isDuplicate, _, err := t.itemRepo.CheckDuplicate(t.FeedName, item.ContentHash)
			if err != nil {
				return fmt.Errorf("failed to check for duplicates: %w", err)
			}

			if isDuplicate {
				duplicateCount++
			} else {
				nonDuplicateItems = append(nonDuplicateItems, item)
			}
		}

		if len(nonDuplicateItems) > 0 {
			filteredItems := t.filterer.Run(nonDuplicateItems, t.FeedConfig)

			for _, item := range filteredItems {
				if item.IsFiltered {
					filteredCount++
				} else {
					newCount++
				}
			}

			if err := t.storeFilteredItems(filteredItems); err != nil {
				return fmt.Errorf("failed to store items: %w", err)
			}
		}
	}

	slog.Info("Task completed",
		"type", "ProcessFeed",
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"version", metadata.Version,
		"total", len(items),
		"duplicates", duplicateCount,
		"filtered", filteredCount,
		"new", newCount)

	return nil
}

// handleParseError reschedules the feed for its next regular refresh and
// marks the failure permanent: the same document would fail again.
func (t *ProcessFeedTask) handleParseError(err error) error {
	var decodeErr *jsonfeed.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		slog.Warn("Feed is not a valid JSON feed",
			"feed", t.FeedName,
			"code", decodeErr.Code(),
			"path", decodeErr.Path,
			"error", err)
	case errors.Is(err, feed.ErrNotJSONFeed):
		slog.Warn("Feed is not a JSON feed", "feed", t.FeedName, "error", err)
	default:
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	if rescheduleErr := t.feedRepo.UpdateNextFetch(t.FeedName, t.nextFetch()); rescheduleErr != nil {
		slog.Error("Failed to reschedule feed", "feed", t.FeedName, "error", rescheduleErr)
	}

	return fmt.Errorf("%w: failed to parse feed: %w", ErrPermanent, err)
}

func (t *ProcessFeedTask) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.FeedConfig.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)
	req.Header.Set("Accept", "application/feed+json, application/json;q=0.9, */*;q=0.1")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > maxFeedSize {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes", ErrPermanent, maxFeedSize)
	}

	return data, nil
}

func (t *ProcessFeedTask) nextFetch() time.Time {
	return time.Now().UTC().Add(time.Duration(t.FeedConfig.Settings.RefreshInterval) * time.Second)
}

func (t *ProcessFeedTask) storeFeedMetadata(metadata *feed.Metadata) error {
	dbMetadata := database.FeedMetadata{
		Version:     metadata.Version,
		Title:       metadata.Title,
		Link:        metadata.Link,
		SelfURL:     metadata.FeedURL,
		NextURL:     metadata.NextURL,
		Description: metadata.Description,
		IconURL:     cmp.Or(metadata.IconURL, metadata.FaviconURL),
		Author:      metadata.Author,
		Expired:     metadata.Expired,
	}

	err := t.feedRepo.UpdateFeedMetadata(t.FeedName, dbMetadata, t.nextFetch())
	if err != nil {
		return fmt.Errorf("failed to update feed metadata and next fetch time: %w", err)
	}

	return nil
}

func (t *ProcessFeedTask) storeFilteredItems(items []feed.Item) error {
	for _, item := range items {
		dbItem := database.FeedItem{
			GUID:         item.GUID,
			Link:         item.Link,
			Title:        item.Title,
			Summary:      item.Summary,
			Content:      item.Content,
			ImageURL:     item.ImageURL,
			PublishedAt:  item.PublishedAt,
			UpdatedAt:    item.UpdatedAt,
			Authors:      item.Authors,
			Categories:   item.Categories,
			IsFiltered:   item.IsFiltered,
			FilterReason: item.FilterReason,
			ContentHash:  item.ContentHash,
		}

		if err := t.itemRepo.UpsertItem(t.FeedName, dbItem); err != nil {
			return fmt.Errorf("failed to upsert item: %w", err)
		}
	}

	return nil
}
