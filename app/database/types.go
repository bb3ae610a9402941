package database

import (
	"time"
)

type Feed struct {
	ID          string // UUID
	Name        string // Configuration feed identifier derived from filename
	FeedURL     string // JSON Feed URL from configuration
	Version     string // JSON Feed version URI
	Title       string
	Link        string // home_page_url
	SelfURL     string // feed_url as declared by the document
	NextURL     string
	Description string
	IconURL     string // icon, or favicon when the feed has no icon
	Author      string
	Expired     bool

	LastFetchedAt *time.Time
	NextFetchAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time // Tracks last successful processing
}

type FeedMetadata struct {
	Version     string
	Title       string
	Link        string
	SelfURL     string
	NextURL     string
	Description string
	IconURL     string
	Author      string
	Expired     bool
}

type Item struct {
	ID           string
	FeedID       string
	GUID         string
	Link         string
	Title        string
	Summary      string
	Content      string
	ImageURL     string
	PublishedAt  time.Time
	UpdatedAt    *time.Time
	Authors      []string
	Categories   []string
	IsFiltered   bool
	FilterReason string
	ContentHash  string
	CreatedAt    time.Time
}

type FeedItem struct {
	GUID        string
	Link        string
	Title       string
	Summary     string
	Content     string
	ImageURL    string
	PublishedAt time.Time
	UpdatedAt   *time.Time
	Authors     []string
	Categories  []string

	ContentHash  string
	IsFiltered   bool
	FilterReason string
}
