package feed

import (
	"errors"
	"testing"
	"time"

	"github.com/lysyi3m/jsonfeed-comb/app/jsonfeed"
)

func TestParseJSONFeed(t *testing.T) {
	feedData := `{
		"version": "https://jsonfeed.org/version/1.1",
		"title": "Test Feed",
		"home_page_url": "https://example.com",
		"feed_url": "https://example.com/feed.json",
		"next_url": "https://example.com/feed.json?page=2",
		"description": "Test Description",
		"icon": "https://example.com/icon.png",
		"favicon": "https://example.com/favicon.ico",
		"author": { "name": "Test Author", "url": "https://example.com/about" },
		"items": [
			{
				"id": "item-1",
				"url": "https://example.com/item1",
				"title": "Test Item 1",
				"summary": "Test Item 1 Summary",
				"content_html": "<p>Test Item 1 Content</p>",
				"image": "https://example.com/item1.png",
				"date_published": "2023-07-03T10:00:00Z",
				"date_modified": "2023-07-03T12:00:00+02:00",
				"tags": ["Technology", "Programming"]
			},
			{
				"id": 2,
				"url": "https://example.com/item2",
				"title": "Test Item 2",
				"date_published": "2023-07-03T11:00:00Z"
			}
		]
	}`

	parser := NewParser()
	metadata, items, err := parser.Run([]byte(feedData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if metadata.Version != jsonfeed.Version1_1 {
		t.Errorf("Expected version '%s', got: %s", jsonfeed.Version1_1, metadata.Version)
	}
	if metadata.Title != "Test Feed" {
		t.Errorf("Expected title 'Test Feed', got: %s", metadata.Title)
	}
	if metadata.Link != "https://example.com" {
		t.Errorf("Expected link 'https://example.com', got: %s", metadata.Link)
	}
	if metadata.FeedURL != "https://example.com/feed.json" {
		t.Errorf("Expected feed URL 'https://example.com/feed.json', got: %s", metadata.FeedURL)
	}
	if metadata.NextURL != "https://example.com/feed.json?page=2" {
		t.Errorf("Expected next URL 'https://example.com/feed.json?page=2', got: %s", metadata.NextURL)
	}
	if metadata.Description != "Test Description" {
		t.Errorf("Expected description 'Test Description', got: %s", metadata.Description)
	}
	if metadata.IconURL != "https://example.com/icon.png" {
		t.Errorf("Expected icon URL 'https://example.com/icon.png', got: %s", metadata.IconURL)
	}
	if metadata.FaviconURL != "https://example.com/favicon.ico" {
		t.Errorf("Expected favicon URL 'https://example.com/favicon.ico', got: %s", metadata.FaviconURL)
	}
	if metadata.Author != "Test Author (https://example.com/about)" {
		t.Errorf("Expected author 'Test Author (https://example.com/about)', got: %s", metadata.Author)
	}
	if metadata.Expired {
		t.Error("Expected feed not to be expired")
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got: %d", len(items))
	}

	item1 := items[0]
	if item1.GUID != "item-1" {
		t.Errorf("Expected GUID 'item-1', got: %s", item1.GUID)
	}
	if item1.Title != "Test Item 1" {
		t.Errorf("Expected title 'Test Item 1', got: %s", item1.Title)
	}
	if item1.Link != "https://example.com/item1" {
		t.Errorf("Expected link 'https://example.com/item1', got: %s", item1.Link)
	}
	if item1.Summary != "Test Item 1 Summary" {
		t.Errorf("Expected summary 'Test Item 1 Summary', got: %s", item1.Summary)
	}
	if item1.Content != "<p>Test Item 1 Content</p>" {
		t.Errorf("Expected HTML content, got: %s", item1.Content)
	}
	if item1.ImageURL != "https://example.com/item1.png" {
		t.Errorf("Expected image URL 'https://example.com/item1.png', got: %s", item1.ImageURL)
	}
	if !item1.PublishedAt.Equal(time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected published 2023-07-03T10:00:00Z, got: %v", item1.PublishedAt)
	}
	if item1.UpdatedAt == nil || !item1.UpdatedAt.Equal(time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected updated 2023-07-03T10:00:00Z, got: %v", item1.UpdatedAt)
	}
	if len(item1.Categories) != 2 || item1.Categories[0] != "Technology" {
		t.Errorf("Expected categories [Technology Programming], got: %v", item1.Categories)
	}
	if len(item1.Authors) != 1 || item1.Authors[0] != "Test Author (https://example.com/about)" {
		t.Errorf("Expected feed author to be inherited, got: %v", item1.Authors)
	}
	if item1.ContentHash == "" {
		t.Error("Expected content hash to be generated")
	}

	if items[1].GUID != "2" {
		t.Errorf("Expected numeric id to become GUID '2', got: %s", items[1].GUID)
	}
	if items[1].UpdatedAt != nil {
		t.Errorf("Expected no updated time, got: %v", items[1].UpdatedAt)
	}
}

func TestParseRejectsXMLFeeds(t *testing.T) {
	tests := map[string]string{
		"rss": `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <item><title>Item</title><guid>item-1</guid></item>
  </channel>
</rss>`,
		"atom": `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom Feed</title>
  <id>urn:uuid:1234567890</id>
</feed>`,
	}

	parser := NewParser()
	for name, data := range tests {
		_, _, err := parser.Run([]byte(data))
		if !errors.Is(err, ErrNotJSONFeed) {
			t.Errorf("Expected ErrNotJSONFeed for %s, got: %v", name, err)
		}
	}
}

func TestParseInvalidFeed(t *testing.T) {
	parser := NewParser()

	_, _, err := parser.Run([]byte("invalid json"))
	if !jsonfeed.IsTypeMismatch(err) {
		t.Errorf("Expected type mismatch for garbage input, got: %v", err)
	}
	if errors.Is(err, ErrNotJSONFeed) {
		t.Error("Expected garbage input to reach the JSON Feed decoder")
	}
}

func TestParseReportsDecodePath(t *testing.T) {
	parser := NewParser()

	feedData := `{
		"version": "https://jsonfeed.org/version/1",
		"title": "Broken",
		"items": [ { "id": "1" }, { "id": "2", "author": { "url": "not a url" } } ]
	}`

	_, _, err := parser.Run([]byte(feedData))

	var decodeErr *jsonfeed.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected *jsonfeed.DecodeError, got: %v", err)
	}
	if decodeErr.Path != "items[1].author.url" {
		t.Errorf("Expected path 'items[1].author.url', got: %s", decodeErr.Path)
	}
}

func TestParseFallbacks(t *testing.T) {
	parser := NewParser()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	parser.now = func() time.Time { return fixed }

	feedData := `{
		"version": "https://jsonfeed.org/version/1",
		"title": "Linkblog",
		"items": [
			{
				"id": "a",
				"external_url": "https://elsewhere.example.org/story",
				"content_text": "Plain text",
				"banner_image": "https://example.com/banner.png",
				"date_modified": "2023-07-03T12:00:00Z",
				"author": { "avatar": "https://example.com/avatar.png" }
			},
			{ "id": "b", "content_html": "<b>html</b>", "content_text": "text" }
		]
	}`

	_, items, err := parser.Run([]byte(feedData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	first := items[0]
	if first.Link != "https://elsewhere.example.org/story" {
		t.Errorf("Expected external URL as link, got: %s", first.Link)
	}
	if first.Content != "Plain text" {
		t.Errorf("Expected text content, got: %s", first.Content)
	}
	if first.ImageURL != "https://example.com/banner.png" {
		t.Errorf("Expected banner image, got: %s", first.ImageURL)
	}
	if !first.PublishedAt.Equal(time.Date(2023, 7, 3, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected published to fall back to modified, got: %v", first.PublishedAt)
	}
	if len(first.Authors) != 0 {
		t.Errorf("Expected avatar-only author to yield no author string, got: %v", first.Authors)
	}

	second := items[1]
	if second.Content != "<b>html</b>" {
		t.Errorf("Expected HTML content to win, got: %s", second.Content)
	}
	if !second.PublishedAt.Equal(fixed) {
		t.Errorf("Expected published to fall back to fetch time, got: %v", second.PublishedAt)
	}
	if second.Authors != nil {
		t.Errorf("Expected no authors, got: %v", second.Authors)
	}
}

func TestContentHashGeneration(t *testing.T) {
	parser := NewParser()

	item1 := Item{GUID: "1", Title: "Test Title", Link: "https://example.com/item1"}
	item2 := Item{GUID: "1", Title: "Test Title", Link: "https://example.com/item1"}
	item3 := Item{GUID: "1", Title: "Different Title", Link: "https://example.com/item1"}
	item4 := Item{GUID: "2", Title: "Test Title", Link: "https://example.com/item1"}

	hash1 := parser.generateContentHash(item1)

	if hash1 != parser.generateContentHash(item2) {
		t.Error("Expected same hash for identical items")
	}
	if hash1 == parser.generateContentHash(item3) {
		t.Error("Expected different hash for different titles")
	}
	if hash1 == parser.generateContentHash(item4) {
		t.Error("Expected different hash for different ids")
	}
}

func TestParser_normalizeURL(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "URL with UTM parameters",
			input:    "https://example.com/article?utm_source=twitter&utm_medium=social&utm_campaign=test",
			expected: "https://example.com/article",
		},
		{
			name:     "URL with Facebook tracking",
			input:    "https://example.com/page?fbclid=IwAR123456789&other=keep",
			expected: "https://example.com/page?other=keep",
		},
		{
			name:     "URL with multiple tracking parameters",
			input:    "https://example.com/content?utm_source=email&fbclid=xyz789&ref=homepage&title=article",
			expected: "https://example.com/content?title=article",
		},
		{
			name:     "URL without tracking parameters",
			input:    "https://example.com/clean?page=1&sort=date",
			expected: "https://example.com/clean?page=1&sort=date",
		},
		{
			name:     "URL without query parameters",
			input:    "https://example.com/simple",
			expected: "https://example.com/simple",
		},
		{
			name:     "Empty URL",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parser.normalizeURL(tt.input)
			if result != tt.expected {
				t.Errorf("normalizeURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseNormalizesItemLinks(t *testing.T) {
	parser := NewParser()

	feedData := `{
		"version": "https://jsonfeed.org/version/1",
		"title": "Tracked",
		"items": [ { "id": "1", "url": "https://example.com/article?utm_source=feed&fbclid=IwAR1" } ]
	}`

	_, items, err := parser.Run([]byte(feedData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if items[0].Link != "https://example.com/article" {
		t.Errorf("Expected normalized link, got: %s", items[0].Link)
	}
}
