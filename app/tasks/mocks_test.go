package tasks

import (
	"fmt"
	"sync"
	"time"

	"github.com/lysyi3m/jsonfeed-comb/app/database"
)

// MockFeedRepository keeps feeds in memory
type MockFeedRepository struct {
	mu        sync.Mutex
	feeds     map[string]*database.Feed
	metadata  map[string]database.FeedMetadata
	nextFetch map[string]time.Time
	err       error
}

var _ database.FeedRepository = (*MockFeedRepository)(nil)

func NewMockFeedRepository() *MockFeedRepository {
	return &MockFeedRepository{
		feeds:     make(map[string]*database.Feed),
		metadata:  make(map[string]database.FeedMetadata),
		nextFetch: make(map[string]time.Time),
	}
}

func (m *MockFeedRepository) GetFeed(feedName string) (*database.Feed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.feeds[feedName], nil
}

func (m *MockFeedRepository) GetFeedCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.feeds), nil
}

func (m *MockFeedRepository) UpsertFeed(feedName, feedURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if existing, ok := m.feeds[feedName]; ok {
		existing.FeedURL = feedURL
		return nil
	}
	m.feeds[feedName] = &database.Feed{ID: "id-" + feedName, Name: feedName, FeedURL: feedURL}
	return nil
}

func (m *MockFeedRepository) UpdateFeedMetadata(feedName string, metadata database.FeedMetadata, nextFetch time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.feeds[feedName]; !ok {
		return fmt.Errorf("failed to update feed metadata for '%s': %w", feedName, database.ErrFeedNotFound)
	}
	m.metadata[feedName] = metadata
	m.nextFetch[feedName] = nextFetch
	return nil
}

func (m *MockFeedRepository) UpdateNextFetch(feedName string, nextFetch time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.feeds[feedName]; !ok {
		return database.ErrFeedNotFound
	}
	m.nextFetch[feedName] = nextFetch
	return nil
}

// MockItemRepository stores items per feed, keyed by GUID
type MockItemRepository struct {
	mu           sync.Mutex
	items        map[string][]database.Item
	filterUpdate map[string]string
	updateErr    error
}

var _ database.ItemRepository = (*MockItemRepository)(nil)

func NewMockItemRepository() *MockItemRepository {
	return &MockItemRepository{
		items:        make(map[string][]database.Item),
		filterUpdate: make(map[string]string),
	}
}

func (m *MockItemRepository) GetVisibleItems(feedName string, limit int) ([]database.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var visible []database.Item
	for _, item := range m.items[feedName] {
		if !item.IsFiltered && len(visible) < limit {
			visible = append(visible, item)
		}
	}
	return visible, nil
}

func (m *MockItemRepository) GetAllItems(feedName string) ([]database.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.Item(nil), m.items[feedName]...), nil
}

func (m *MockItemRepository) GetItemCount(feedName string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items[feedName]), nil
}

func (m *MockItemRepository) GetItemStats(feedName string) (int, int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total, filtered := len(m.items[feedName]), 0
	for _, item := range m.items[feedName] {
		if item.IsFiltered {
			filtered++
		}
	}
	return total, total - filtered, filtered, nil
}

func (m *MockItemRepository) UpsertItem(feedName string, item database.FeedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := database.Item{
		ID:           fmt.Sprintf("%s-%s", feedName, item.GUID),
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
	for i, existing := range m.items[feedName] {
		if existing.GUID == item.GUID {
			m.items[feedName][i] = stored
			return nil
		}
	}
	m.items[feedName] = append(m.items[feedName], stored)
	return nil
}

func (m *MockItemRepository) UpdateItemFilterStatus(itemID string, isFiltered bool, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.filterUpdate[itemID] = reason
	for feedName, items := range m.items {
		for i := range items {
			if items[i].ID == itemID {
				m.items[feedName][i].IsFiltered = isFiltered
				m.items[feedName][i].FilterReason = reason
			}
		}
	}
	return nil
}

func (m *MockItemRepository) CheckDuplicate(feedName, contentHash string) (bool, *string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items[feedName] {
		if item.ContentHash == contentHash {
			id := item.ID
			return true, &id, nil
		}
	}
	return false, nil, nil
}
