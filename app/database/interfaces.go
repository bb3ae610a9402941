package database

import (
	"errors"
	"time"
)

// ErrFeedNotFound is returned by writes that target a feed name with no row.
var ErrFeedNotFound = errors.New("feed not found")

type FeedRepository interface {
	GetFeed(feedName string) (*Feed, error)
	GetFeedCount() (int, error)

	UpsertFeed(feedName, feedURL string) error
	UpdateFeedMetadata(feedName string, metadata FeedMetadata, nextFetch time.Time) error
	UpdateNextFetch(feedName string, nextFetch time.Time) error
}

type ItemRepository interface {
	GetVisibleItems(feedName string, limit int) ([]Item, error)
	GetAllItems(feedName string) ([]Item, error)
	GetItemCount(feedName string) (int, error)
	GetItemStats(feedName string) (int, int, int, error)

	UpsertItem(feedName string, item FeedItem) error
	UpdateItemFilterStatus(itemID string, isFiltered bool, reason string) error

	CheckDuplicate(feedName, contentHash string) (bool, *string, error)
}

var (
	_ FeedRepository = (*feedRepository)(nil)
	_ ItemRepository = (*itemRepository)(nil)
)
