package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type feedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) FeedRepository {
	return &feedRepository{db: db}
}

const feedColumns = `id, name, feed_url, version, title, link, self_url, next_url, description,
	icon_url, author, expired, last_fetched_at, next_fetch_at, created_at, updated_at`

func (r *feedRepository) GetFeed(feedName string) (*Feed, error) {
	var feed Feed
	err := r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE name = ?`, feedName).Scan(
		&feed.ID, &feed.Name, &feed.FeedURL, &feed.Version, &feed.Title, &feed.Link, &feed.SelfURL,
		&feed.NextURL, &feed.Description, &feed.IconURL, &feed.Author, &feed.Expired,
		&feed.LastFetchedAt, &feed.NextFetchAt, &feed.CreatedAt, &feed.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return &feed, nil
}

func (r *feedRepository) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

// UpsertFeed registers a feed by name. A changed URL makes the feed due
// immediately.
func (r *feedRepository) UpsertFeed(feedName, feedURL string) error {
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO feeds (id, name, feed_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			next_fetch_at = CASE WHEN feeds.feed_url <> excluded.feed_url THEN NULL ELSE feeds.next_fetch_at END,
			feed_url = excluded.feed_url,
			updated_at = excluded.updated_at
	`, uuid.NewString(), feedName, feedURL, now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert feed: %w", err)
	}

	return nil
}

func (r *feedRepository) UpdateFeedMetadata(feedName string, metadata FeedMetadata, nextFetch time.Time) error {
	now := time.Now().UTC()

	result, err := r.db.Exec(`
		UPDATE feeds
		SET version = ?, title = ?, link = ?, self_url = ?, next_url = ?, description = ?,
		    icon_url = ?, author = ?, expired = ?,
		    last_fetched_at = ?, next_fetch_at = ?, updated_at = ?
		WHERE name = ?
	`, metadata.Version, metadata.Title, metadata.Link, metadata.SelfURL, metadata.NextURL, metadata.Description,
		metadata.IconURL, metadata.Author, metadata.Expired,
		now, nextFetch.UTC(), now, feedName)

	if err != nil {
		return fmt.Errorf("failed to update feed metadata: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update feed metadata: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("failed to update feed metadata for '%s': %w", feedName, ErrFeedNotFound)
	}

	return nil
}

// UpdateNextFetch reschedules a feed without touching its metadata, used when
// a fetched document could not be stored.
func (r *feedRepository) UpdateNextFetch(feedName string, nextFetch time.Time) error {
	result, err := r.db.Exec(`
		UPDATE feeds SET next_fetch_at = ?, updated_at = ? WHERE name = ?
	`, nextFetch.UTC(), time.Now().UTC(), feedName)
	if err != nil {
		return fmt.Errorf("failed to update next fetch time: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update next fetch time: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("failed to update next fetch time for '%s': %w", feedName, ErrFeedNotFound)
	}

	return nil
}
