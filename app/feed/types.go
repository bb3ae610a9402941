package feed

import (
	"time"
)

// Feed processing types

type Metadata struct {
	Version     string // JSON Feed version URI
	Title       string
	Link        string // home_page_url
	FeedURL     string
	NextURL     string // stored, never followed
	Description string
	IconURL     string
	FaviconURL  string
	Author      string
	Expired     bool
}

type Item struct {
	GUID        string
	Title       string
	Link        string
	Summary     string
	Content     string
	ImageURL    string
	PublishedAt time.Time
	UpdatedAt   *time.Time
	Authors     []string // "name (url)", "name" or "url"
	Categories  []string

	ContentHash  string
	IsFiltered   bool
	FilterReason string
}

// Configuration types

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	MaxItems        int  `yaml:"max_items"`
	Timeout         int  `yaml:"timeout"` // seconds
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
