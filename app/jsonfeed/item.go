package jsonfeed

import (
	"encoding/json"
	"net/url"
	"time"
)

const (
	keyItemID          = "id"
	keyItemURL         = "url"
	keyItemExternalURL = "external_url"
	keyItemTitle       = "title"
	keyItemContentHTML = "content_html"
	keyItemContentText = "content_text"
	keyItemSummary     = "summary"
	keyItemImage       = "image"
	keyItemBannerImage = "banner_image"
	keyItemPublished   = "date_published"
	keyItemModified    = "date_modified"
	keyItemAuthor      = "author"
	keyItemTags        = "tags"
)

// Item is one entry of a feed.
type Item struct {
	// ID is unique for the item within its feed over time. Numeric ids are
	// kept in their literal textual form.
	ID string

	URL         *url.URL // permalink
	ExternalURL *url.URL // page the item is about, mostly for linkblogs
	Title       *string
	ContentHTML *string
	ContentText *string
	Summary     *string
	Image       *url.URL
	BannerImage *url.URL
	Published   *time.Time
	Modified    *time.Time

	// Author is nil when the item has none of its own; readers then use the
	// feed author, see Feed.ItemAuthor.
	Author *Author

	// Tags keep the order of the document. Nil means the key was absent.
	Tags []string
}

// DecodeItem decodes a standalone item object.
func DecodeItem(data []byte) (*Item, error) {
	item, err := decodeItem(data, "")
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (i *Item) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	decoded, err := decodeItem(data, "")
	if err != nil {
		return err
	}
	*i = decoded
	return nil
}

func decodeItem(raw json.RawMessage, path string) (Item, error) {
	o, err := parseObject(raw, path)
	if err != nil {
		return Item{}, err
	}

	var item Item
	if item.ID, err = required(o, keyItemID, asID); err != nil {
		return Item{}, err
	}

	if item.URL, err = optional(o, keyItemURL, asURL); err != nil {
		return Item{}, err
	}
	if item.ExternalURL, err = optional(o, keyItemExternalURL, asURL); err != nil {
		return Item{}, err
	}
	if item.Title, err = optional(o, keyItemTitle, asString); err != nil {
		return Item{}, err
	}
	if item.ContentHTML, err = optional(o, keyItemContentHTML, asString); err != nil {
		return Item{}, err
	}
	if item.ContentText, err = optional(o, keyItemContentText, asString); err != nil {
		return Item{}, err
	}
	if item.Summary, err = optional(o, keyItemSummary, asString); err != nil {
		return Item{}, err
	}
	if item.Image, err = optional(o, keyItemImage, asURL); err != nil {
		return Item{}, err
	}
	if item.BannerImage, err = optional(o, keyItemBannerImage, asURL); err != nil {
		return Item{}, err
	}

	if item.Published, err = optional(o, keyItemPublished, asTime); err != nil {
		return Item{}, err
	}
	if item.Modified, err = optional(o, keyItemModified, asTime); err != nil {
		return Item{}, err
	}

	if item.Author, err = optional(o, keyItemAuthor, decodeAuthor); err != nil {
		return Item{}, err
	}

	tags, err := optional(o, keyItemTags, asStrings)
	if err != nil {
		return Item{}, err
	}
	if tags != nil {
		item.Tags = *tags
	}

	return item, nil
}
