package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type itemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `i.id, i.feed_id, i.guid, i.link, i.title, i.summary, i.content, i.image_url,
	i.published_at, i.updated_at, i.authors, i.categories, i.is_filtered, i.filter_reason,
	i.content_hash, i.created_at`

// CheckDuplicate reports whether the feed already stores an item with the
// given content hash, and its ID.
func (r *itemRepository) CheckDuplicate(feedName, contentHash string) (bool, *string, error) {
	var duplicateID string
	err := r.db.QueryRow(`
		SELECT i.id FROM items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ? AND i.content_hash = ?
		LIMIT 1
	`, feedName, contentHash).Scan(&duplicateID)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, fmt.Errorf("failed to check duplicate: %w", err)
	}

	return true, &duplicateID, nil
}

// UpsertItem stores an item keyed by (feed, guid). The original publication
// time of an existing item is kept.
func (r *itemRepository) UpsertItem(feedName string, item FeedItem) error {
	authors, err := encodeStrings(item.Authors)
	if err != nil {
		return fmt.Errorf("failed to encode authors: %w", err)
	}
	categories, err := encodeStrings(item.Categories)
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	var updatedAt any
	if item.UpdatedAt != nil {
		updatedAt = item.UpdatedAt.UTC()
	}

	result, err := r.db.Exec(`
		INSERT INTO items (
			id, feed_id, guid, link, title, summary, content, image_url,
			published_at, updated_at, authors, categories,
			is_filtered, filter_reason, content_hash, created_at
		)
		SELECT ?, f.id, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		FROM feeds f WHERE f.name = ?
		ON CONFLICT (feed_id, guid) DO UPDATE SET
			link = excluded.link,
			title = excluded.title,
			summary = excluded.summary,
			content = excluded.content,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at,
			authors = excluded.authors,
			categories = excluded.categories,
			is_filtered = excluded.is_filtered,
			filter_reason = excluded.filter_reason,
			content_hash = excluded.content_hash
	`, uuid.NewString(), item.GUID, item.Link, item.Title, item.Summary, item.Content, item.ImageURL,
		item.PublishedAt.UTC(), updatedAt, authors, categories,
		item.IsFiltered, item.FilterReason, item.ContentHash, time.Now().UTC(),
		feedName)

	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("failed to upsert item for '%s': %w", feedName, ErrFeedNotFound)
	}

	return nil
}

// GetVisibleItems returns non-filtered items for a feed, newest first
func (r *itemRepository) GetVisibleItems(feedName string, limit int) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ? AND i.is_filtered = 0
		ORDER BY i.published_at DESC, i.created_at DESC
		LIMIT ?
	`, feedName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get visible items: %w", err)
	}

	return scanItems(rows)
}

// GetAllItems returns all items for a feed (including filtered ones)
func (r *itemRepository) GetAllItems(feedName string) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ?
		ORDER BY i.published_at DESC, i.created_at DESC
	`, feedName)
	if err != nil {
		return nil, fmt.Errorf("failed to get all items: %w", err)
	}

	return scanItems(rows)
}

func (r *itemRepository) GetItemCount(feedName string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ?
	`, feedName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

// GetItemStats returns total, visible and filtered item counts for a feed
func (r *itemRepository) GetItemStats(feedName string) (total, visible, filtered int, err error) {
	err = r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN i.is_filtered = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN i.is_filtered = 1 THEN 1 ELSE 0 END), 0)
		FROM items i
		JOIN feeds f ON f.id = i.feed_id
		WHERE f.name = ?
	`, feedName).Scan(&total, &visible, &filtered)

	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get item stats: %w", err)
	}

	return total, visible, filtered, nil
}

func (r *itemRepository) UpdateItemFilterStatus(itemID string, isFiltered bool, filterReason string) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET is_filtered = ?, filter_reason = ?
		WHERE id = ?
	`, isFiltered, filterReason, itemID)

	if err != nil {
		return fmt.Errorf("failed to update item filter status: %w", err)
	}

	return nil
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var item Item
		var authors, categories string
		err := rows.Scan(
			&item.ID, &item.FeedID, &item.GUID, &item.Link, &item.Title,
			&item.Summary, &item.Content, &item.ImageURL,
			&item.PublishedAt, &item.UpdatedAt, &authors, &categories,
			&item.IsFiltered, &item.FilterReason,
			&item.ContentHash, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}

		if item.Authors, err = decodeStrings(authors); err != nil {
			return nil, fmt.Errorf("failed to decode authors of item %s: %w", item.ID, err)
		}
		if item.Categories, err = decodeStrings(categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories of item %s: %w", item.ID, err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

// String lists are kept as JSON arrays in text columns.
func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeStrings(data string) ([]string, error) {
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, err
	}
	return values, nil
}
