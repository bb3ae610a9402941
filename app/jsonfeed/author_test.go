package jsonfeed

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeAuthor_EmptyObject(t *testing.T) {
	author, err := DecodeAuthor([]byte(`{}`))
	if err == nil {
		t.Fatalf("Expected error for empty author, got: %+v", author)
	}

	if !IsAuthorIncomplete(err) {
		t.Errorf("Expected ErrAuthorIncomplete, got: %v", err)
	}

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected *DecodeError, got: %T", err)
	}
	if decodeErr.Code() != "author_incomplete" {
		t.Errorf("Expected code 'author_incomplete', got: %s", decodeErr.Code())
	}
}

func TestDecodeAuthor_AllMembersNull(t *testing.T) {
	_, err := DecodeAuthor([]byte(`{ "name": null, "url": null, "avatar": null }`))
	if !IsAuthorIncomplete(err) {
		t.Errorf("Expected ErrAuthorIncomplete for all-null author, got: %v", err)
	}
}

func TestDecodeAuthor_UnknownMembersOnly(t *testing.T) {
	_, err := DecodeAuthor([]byte(`{ "email": "jon@example.org" }`))
	if !IsAuthorIncomplete(err) {
		t.Errorf("Expected ErrAuthorIncomplete when only unknown members are set, got: %v", err)
	}
}

func TestDecodeAuthor_Name(t *testing.T) {
	author, err := DecodeAuthor([]byte(`{ "name": "Jon Snow" }`))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if author.Name == nil || *author.Name != "Jon Snow" {
		t.Errorf("Expected name 'Jon Snow', got: %v", author.Name)
	}
	if author.URL != nil {
		t.Errorf("Expected no URL, got: %s", author.URL)
	}
	if author.Avatar != nil {
		t.Errorf("Expected no avatar, got: %s", author.Avatar)
	}
}

func TestDecodeAuthor_Avatar(t *testing.T) {
	author, err := DecodeAuthor([]byte(`{ "avatar": "https://example.org/avatar.png" }`))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if author.Avatar == nil || author.Avatar.String() != "https://example.org/avatar.png" {
		t.Errorf("Expected avatar 'https://example.org/avatar.png', got: %v", author.Avatar)
	}
	if author.Name != nil {
		t.Errorf("Expected no name, got: %s", *author.Name)
	}
	if author.URL != nil {
		t.Errorf("Expected no URL, got: %s", author.URL)
	}
}

func TestDecodeAuthor_URL(t *testing.T) {
	author, err := DecodeAuthor([]byte(`{ "url": "https://example.org/owner" }`))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if author.URL == nil || author.URL.String() != "https://example.org/owner" {
		t.Errorf("Expected URL 'https://example.org/owner', got: %v", author.URL)
	}
	if author.Name != nil || author.Avatar != nil {
		t.Errorf("Expected only URL to be set, got: %+v", author)
	}
}

func TestDecodeAuthor_All(t *testing.T) {
	payload := `{ "name": "Jon Snow", "avatar": "https://example.org/avatar.png", "url": "https://example.org/owner" }`

	author, err := DecodeAuthor([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if author.Name == nil || *author.Name != "Jon Snow" {
		t.Errorf("Expected name 'Jon Snow', got: %v", author.Name)
	}
	if author.URL == nil || author.URL.String() != "https://example.org/owner" {
		t.Errorf("Expected URL 'https://example.org/owner', got: %v", author.URL)
	}
	if author.Avatar == nil || author.Avatar.String() != "https://example.org/avatar.png" {
		t.Errorf("Expected avatar 'https://example.org/avatar.png', got: %v", author.Avatar)
	}
}

func TestDecodeAuthor_EmptyNameCounts(t *testing.T) {
	author, err := DecodeAuthor([]byte(`{ "name": "" }`))
	if err != nil {
		t.Fatalf("Expected empty name to satisfy the author rule, got: %v", err)
	}
	if author.Name == nil || *author.Name != "" {
		t.Errorf("Expected empty name to be kept, got: %v", author.Name)
	}
}

func TestDecodeAuthor_MailtoURL(t *testing.T) {
	author, err := DecodeAuthor([]byte(`{ "url": "mailto:jon@example.org" }`))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if author.URL.Scheme != "mailto" {
		t.Errorf("Expected mailto scheme, got: %s", author.URL.Scheme)
	}
}

func TestDecodeAuthor_TypeMismatch(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		path    string
	}{
		{"numeric name", `{ "name": 42 }`, "name"},
		{"invalid url", `{ "name": "Jon", "url": "not a url" }`, "url"},
		{"avatar object", `{ "avatar": {} }`, "avatar"},
		{"not an object", `"Jon Snow"`, ""},
		{"array", `[]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAuthor([]byte(tt.payload))
			if !IsTypeMismatch(err) {
				t.Fatalf("Expected ErrTypeMismatch, got: %v", err)
			}

			var decodeErr *DecodeError
			errors.As(err, &decodeErr)
			if decodeErr.Path != tt.path {
				t.Errorf("Expected path '%s', got: '%s'", tt.path, decodeErr.Path)
			}
		})
	}
}

func TestAuthor_UnmarshalJSON(t *testing.T) {
	var author Author
	if err := json.Unmarshal([]byte(`{ "name": "Jon Snow" }`), &author); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if author.Name == nil || *author.Name != "Jon Snow" {
		t.Errorf("Expected name 'Jon Snow', got: %v", author.Name)
	}

	err := json.Unmarshal([]byte(`{}`), &author)
	if !IsAuthorIncomplete(err) {
		t.Errorf("Expected ErrAuthorIncomplete through json.Unmarshal, got: %v", err)
	}
}
