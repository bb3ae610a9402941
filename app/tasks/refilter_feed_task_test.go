package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lysyi3m/jsonfeed-comb/app/database"
	"github.com/lysyi3m/jsonfeed-comb/app/feed"
)

func TestRefilterFeedTask(t *testing.T) {
	itemRepo := NewMockItemRepository()
	published := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	itemRepo.UpsertItem("example", database.FeedItem{GUID: "1", Title: "Go release notes", PublishedAt: published, ContentHash: "a"})
	itemRepo.UpsertItem("example", database.FeedItem{GUID: "2", Title: "Weekly ad roundup", PublishedAt: published, ContentHash: "b"})
	itemRepo.UpsertItem("example", database.FeedItem{
		GUID: "3", Title: "Old news", PublishedAt: published, ContentHash: "c",
		IsFiltered: true, FilterReason: "Excluded by title filter: contains 'old'",
	})

	feedConfig := &feed.Config{
		Name:    "example",
		Filters: []feed.ConfigFilter{{Field: "title", Excludes: []string{"AD ROUNDUP"}}},
	}

	task := NewRefilterFeedTask("example", feedConfig, feed.NewFilterer(), itemRepo)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	items := itemRepo.items["example"]
	if items[0].IsFiltered {
		t.Error("Expected item 1 to stay visible")
	}
	if !items[1].IsFiltered {
		t.Error("Expected item 2 to be filtered case-insensitively")
	}
	if items[2].IsFiltered || items[2].FilterReason != "" {
		t.Errorf("Expected item 3 to become visible, got reason: %q", items[2].FilterReason)
	}

	// Item 1 did not change and must not be written
	if _, ok := itemRepo.filterUpdate["example-1"]; ok {
		t.Error("Expected unchanged item to be skipped")
	}
	if len(itemRepo.filterUpdate) != 2 {
		t.Errorf("Expected 2 filter updates, got: %d", len(itemRepo.filterUpdate))
	}
}

func TestRefilterFeedTaskReportsUpdateErrors(t *testing.T) {
	itemRepo := NewMockItemRepository()
	itemRepo.UpsertItem("example", database.FeedItem{GUID: "1", Title: "Ad", ContentHash: "a"})
	itemRepo.updateErr = errors.New("disk full")

	feedConfig := &feed.Config{
		Name:    "example",
		Filters: []feed.ConfigFilter{{Field: "title", Excludes: []string{"ad"}}},
	}

	err := NewRefilterFeedTask("example", feedConfig, feed.NewFilterer(), itemRepo).Execute(context.Background())
	if err == nil {
		t.Error("Expected error when item updates fail")
	}
}

func TestSyncFeedConfigTask(t *testing.T) {
	feedRepo := NewMockFeedRepository()
	feedConfig := &feed.Config{Name: "example", URL: "https://example.org/feed.json"}

	task := NewSyncFeedConfigTask("example", feedConfig, feedRepo)
	if task.GetFeedName() != "example" || task.GetType() != TaskTypeSyncFeedConfig {
		t.Errorf("Unexpected task identity: %s %s", task.GetFeedName(), task.GetType())
	}

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	stored, _ := feedRepo.GetFeed("example")
	if stored == nil || stored.FeedURL != "https://example.org/feed.json" {
		t.Errorf("Expected feed row to be created, got: %+v", stored)
	}

	feedRepo.err = errors.New("database is locked")
	if err := NewSyncFeedConfigTask("example", feedConfig, feedRepo).Execute(context.Background()); err == nil {
		t.Error("Expected repository error to be returned")
	}
}
