package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/jsonfeed-comb/app/database"
	"github.com/lysyi3m/jsonfeed-comb/app/feed"
)

// RefilterFeedTask re-applies the current filters to every stored item
type RefilterFeedTask struct {
	Task
	FeedConfig *feed.Config
	filterer   *feed.Filterer
	itemRepo   database.ItemRepository
}

func NewRefilterFeedTask(feedName string, feedConfig *feed.Config, filterer *feed.Filterer, itemRepo database.ItemRepository) *RefilterFeedTask {
	return &RefilterFeedTask{
		Task:       NewTask(TaskTypeRefilterFeed, feedName),
		FeedConfig: feedConfig,
		filterer:   filterer,
		itemRepo:   itemRepo,
	}
}

func (t *RefilterFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	items, err := t.itemRepo.GetAllItems(t.FeedName)
	if err != nil {
		return fmt.Errorf("failed to get feed items: %w", err)
	}

	feedItems := make([]feed.Item, len(items))
	for i, item := range items {
		feedItems[i] = feed.Item{
			GUID:        item.GUID,
			Title:       item.Title,
			Link:        item.Link,
			Summary:     item.Summary,
			Content:     item.Content,
			ImageURL:    item.ImageURL,
			PublishedAt: item.PublishedAt,
			UpdatedAt:   item.UpdatedAt,
			Authors:     item.Authors,
			Categories:  item.Categories,
			ContentHash: item.ContentHash,
		}
	}

	filteredItems := t.filterer.Run(feedItems, t.FeedConfig)

	updatedCount := 0
	errorCount := 0

	for i, filteredItem := range filteredItems {
		originalItem := items[i]

		if originalItem.IsFiltered == filteredItem.IsFiltered && originalItem.FilterReason == filteredItem.FilterReason {
			continue
		}

		err := t.itemRepo.UpdateItemFilterStatus(originalItem.ID, filteredItem.IsFiltered, filteredItem.FilterReason)
		if err != nil {
			slog.Error("Failed to update item filter status", "item_id", originalItem.ID, "error", err)
			errorCount++
		} else {
			updatedCount++
		}
	}

	slog.Info("Task completed",
		"type", "RefilterFeed",
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"total", len(items),
		"updated", updatedCount,
		"errors", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("failed to update %d of %d items", errorCount, len(items))
	}

	return nil
}
