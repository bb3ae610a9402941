package jsonfeed

import (
	"encoding/json"
	"net/url"
)

const (
	keyAuthorName   = "name"
	keyAuthorURL    = "url"
	keyAuthorAvatar = "avatar"
)

// Author attributes a feed or an item. A decoded Author always has at least
// one of its fields set.
type Author struct {
	Name   *string
	URL    *url.URL // site owned by the author, possibly a mailto: link
	Avatar *url.URL
}

// DecodeAuthor decodes a standalone author object.
func DecodeAuthor(data []byte) (*Author, error) {
	a, err := decodeAuthor(data, "")
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (a *Author) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	decoded, err := decodeAuthor(data, "")
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

func decodeAuthor(raw json.RawMessage, path string) (Author, error) {
	o, err := parseObject(raw, path)
	if err != nil {
		return Author{}, err
	}

	var a Author
	if a.Name, err = optional(o, keyAuthorName, asString); err != nil {
		return Author{}, err
	}
	if a.URL, err = optional(o, keyAuthorURL, asURL); err != nil {
		return Author{}, err
	}
	if a.Avatar, err = optional(o, keyAuthorAvatar, asURL); err != nil {
		return Author{}, err
	}

	if a.Name == nil && a.URL == nil && a.Avatar == nil {
		return Author{}, authorIncomplete(path)
	}

	return a, nil
}
