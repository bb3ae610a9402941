// Package jsonfeed decodes and validates JSON Feed documents
// (https://jsonfeed.org) into typed values.
//
// Decoding is strict about shape: required members must be present, URIs and
// dates must be well formed, and an author object must carry at least one
// member. Every failure is a *DecodeError naming the offending JSON path.
// Decoding holds no state, so concurrent calls on independent inputs are safe.
package jsonfeed

import (
	"encoding/json"
	"net/url"
)

const (
	Version1   = "https://jsonfeed.org/version/1"
	Version1_1 = "https://jsonfeed.org/version/1.1"
)

const (
	keyFeedVersion     = "version"
	keyFeedTitle       = "title"
	keyFeedDescription = "description"
	keyFeedAuthor      = "author"
	keyFeedHomePageURL = "home_page_url"
	keyFeedFeedURL     = "feed_url"
	keyFeedNextURL     = "next_url"
	keyFeedIcon        = "icon"
	keyFeedFavicon     = "favicon"
	keyFeedExpired     = "expired"
	keyFeedItems       = "items"
)

// Feed is a decoded JSON Feed document. The "hubs" member is not modeled.
type Feed struct {
	Version url.URL
	Title   string // may be empty

	HomePageURL *url.URL
	FeedURL     *url.URL
	Description *string

	// NextURL points at the next page. It must differ from FeedURL and from
	// every earlier NextURL of the chain; checking that is up to the caller.
	NextURL *url.URL

	Icon    *url.URL
	Favicon *url.URL
	Author  *Author

	// Expired is true only when the document says literally true.
	Expired bool

	Items []Item
}

// Decode decodes a complete JSON Feed document.
func Decode(data []byte) (*Feed, error) {
	f, err := decodeFeed(data, "")
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Feed) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	decoded, err := decodeFeed(data, "")
	if err != nil {
		return err
	}
	*f = decoded
	return nil
}

// ItemAuthor returns the author of item, falling back to the feed author.
func (f *Feed) ItemAuthor(item *Item) *Author {
	if item != nil && item.Author != nil {
		return item.Author
	}
	return f.Author
}

func decodeFeed(raw json.RawMessage, path string) (Feed, error) {
	o, err := parseObject(raw, path)
	if err != nil {
		return Feed{}, err
	}

	var f Feed
	if f.Version, err = required(o, keyFeedVersion, asURL); err != nil {
		return Feed{}, err
	}
	if f.Title, err = required(o, keyFeedTitle, asString); err != nil {
		return Feed{}, err
	}
	if f.Description, err = optional(o, keyFeedDescription, asString); err != nil {
		return Feed{}, err
	}
	if f.Author, err = optional(o, keyFeedAuthor, decodeAuthor); err != nil {
		return Feed{}, err
	}

	if f.HomePageURL, err = optional(o, keyFeedHomePageURL, asURL); err != nil {
		return Feed{}, err
	}
	if f.FeedURL, err = optional(o, keyFeedFeedURL, asURL); err != nil {
		return Feed{}, err
	}
	if f.NextURL, err = optional(o, keyFeedNextURL, asURL); err != nil {
		return Feed{}, err
	}

	if f.Icon, err = optional(o, keyFeedIcon, asURL); err != nil {
		return Feed{}, err
	}
	if f.Favicon, err = optional(o, keyFeedFavicon, asURL); err != nil {
		return Feed{}, err
	}

	expired, err := optional(o, keyFeedExpired, asTrue)
	if err != nil {
		return Feed{}, err
	}
	f.Expired = expired != nil && *expired

	if f.Items, err = required(o, keyFeedItems, decodeItems); err != nil {
		return Feed{}, err
	}

	return f, nil
}

func decodeItems(raw json.RawMessage, path string) ([]Item, error) {
	elems, err := asArray(raw, path)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(elems))
	for i, elem := range elems {
		item, err := decodeItem(elem, indexPath(path, i))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
