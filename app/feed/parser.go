package feed

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/jsonfeed-comb/app/jsonfeed"
)

// ErrNotJSONFeed is returned for documents recognized as RSS or Atom.
var ErrNotJSONFeed = errors.New("document is not a JSON feed")

var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"dclid":   true,
	"msclkid": true,
	"mc_cid":  true,
	"mc_eid":  true,
	"yclid":   true,
	"_hsenc":  true,
	"_hsmi":   true,
	"ref":     true,
}

type Parser struct {
	now func() time.Time
}

func NewParser() *Parser {
	return &Parser{
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	switch gofeed.DetectFeedType(bytes.NewReader(data)) {
	case gofeed.FeedTypeRSS:
		return nil, nil, fmt.Errorf("%w: detected RSS", ErrNotJSONFeed)
	case gofeed.FeedTypeAtom:
		return nil, nil, fmt.Errorf("%w: detected Atom", ErrNotJSONFeed)
	}

	doc, err := jsonfeed.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	metadata := &Metadata{
		Version: doc.Version.String(),
		Title:   doc.Title,
		Link:    urlString(doc.HomePageURL),
		FeedURL: urlString(doc.FeedURL),
		NextURL: urlString(doc.NextURL),
		IconURL: urlString(doc.Icon),
		Expired: doc.Expired,

		FaviconURL: urlString(doc.Favicon),
	}

	if doc.Description != nil {
		metadata.Description = *doc.Description
	}
	if doc.Author != nil {
		metadata.Author = p.formatAuthor(doc.Author)
	}

	items := make([]Item, 0, len(doc.Items))
	for i := range doc.Items {
		normalized := p.normalizeItem(doc, &doc.Items[i])
		normalized.ContentHash = p.generateContentHash(normalized)
		items = append(items, normalized)
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(doc *jsonfeed.Feed, item *jsonfeed.Item) Item {
	link := p.normalizeURL(cmp.Or(urlString(item.URL), urlString(item.ExternalURL)))

	normalized := Item{
		GUID:     item.ID,
		Title:    deref(item.Title),
		Link:     link,
		Summary:  deref(item.Summary),
		Content:  cmp.Or(deref(item.ContentHTML), deref(item.ContentText)),
		ImageURL: cmp.Or(urlString(item.Image), urlString(item.BannerImage)),
	}

	switch {
	case item.Published != nil:
		normalized.PublishedAt = item.Published.UTC()
	case item.Modified != nil:
		normalized.PublishedAt = item.Modified.UTC()
	default:
		normalized.PublishedAt = p.now()
	}

	if item.Modified != nil {
		updated := item.Modified.UTC()
		normalized.UpdatedAt = &updated
	}

	if author := doc.ItemAuthor(item); author != nil {
		if formatted := p.formatAuthor(author); formatted != "" {
			normalized.Authors = []string{formatted}
		}
	}

	if item.Tags != nil {
		normalized.Categories = item.Tags
	}

	return normalized
}

func (p *Parser) generateContentHash(item Item) string {
	content := fmt.Sprintf("%s|%s|%s",
		item.GUID,
		item.Title,
		item.Link)

	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

func (p *Parser) formatAuthor(author *jsonfeed.Author) string {
	name := strings.TrimSpace(deref(author.Name))
	link := urlString(author.URL)

	if name != "" && link != "" {
		return fmt.Sprintf("%s (%s)", name, link)
	} else if name != "" {
		return name
	}

	return link
}

// normalizeURL drops click-tracking query parameters. Links that fail to
// parse are returned unchanged.
func (p *Parser) normalizeURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return rawURL
	}

	query := u.Query()
	changed := false
	for key := range query {
		if strings.HasPrefix(key, "utm_") || trackingParams[key] {
			query.Del(key)
			changed = true
		}
	}

	if !changed {
		return rawURL
	}

	u.RawQuery = query.Encode()
	return u.String()
}

func urlString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
