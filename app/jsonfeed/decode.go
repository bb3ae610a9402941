package jsonfeed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

var jsonNull = []byte("null")

// object holds the members of one JSON object together with its path in the
// document, so every value decoded from it can report where it came from.
type object struct {
	path    string
	members map[string]json.RawMessage
}

func parseObject(raw []byte, path string) (object, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return object{}, typeMismatch(path, "expected object", nil)
	}
	// encoding/json would replace invalid bytes with U+FFFD
	if path == "" && !utf8.Valid(raw) {
		return object{}, typeMismatch(path, "invalid UTF-8", nil)
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return object{}, typeMismatch(path, "malformed object", err)
	}

	return object{path: path, members: members}, nil
}

// lookup treats an explicit null the same as a missing key.
func (o object) lookup(key string) (json.RawMessage, bool) {
	raw, ok := o.members[key]
	if !ok {
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, jsonNull) {
		return nil, false
	}
	return raw, true
}

func (o object) field(key string) string {
	if o.path == "" {
		return key
	}
	return o.path + "." + key
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

// optional decodes key with fn when it is present. A missing key yields nil.
func optional[T any](o object, key string, fn func(json.RawMessage, string) (T, error)) (*T, error) {
	raw, ok := o.lookup(key)
	if !ok {
		return nil, nil
	}

	v, err := fn(raw, o.field(key))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func required[T any](o object, key string, fn func(json.RawMessage, string) (T, error)) (T, error) {
	raw, ok := o.lookup(key)
	if !ok {
		var zero T
		return zero, missingField(o.field(key))
	}
	return fn(raw, o.field(key))
}

func asString(raw json.RawMessage, path string) (string, error) {
	if bytes.Equal(raw, jsonNull) {
		return "", typeMismatch(path, "expected string, got null", nil)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", typeMismatch(path, "expected string", err)
	}
	return s, nil
}

// asID accepts a string or a number; numbers keep their literal spelling.
func asID(raw json.RawMessage, path string) (string, error) {
	if len(raw) > 0 && (raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", typeMismatch(path, "expected string or number", err)
		}
		return n.String(), nil
	}

	if len(raw) == 0 || raw[0] != '"' {
		return "", typeMismatch(path, "expected string or number", nil)
	}
	return asString(raw, path)
}

func asURL(raw json.RawMessage, path string) (url.URL, error) {
	s, err := asString(raw, path)
	if err != nil {
		return url.URL{}, err
	}

	u, err := ParseURI(s)
	if err != nil {
		return url.URL{}, typeMismatch(path, fmt.Sprintf("invalid URI %q", s), err)
	}
	return *u, nil
}

func asTime(raw json.RawMessage, path string) (time.Time, error) {
	s, err := asString(raw, path)
	if err != nil {
		return time.Time{}, err
	}

	// RFC 3339 allows a lowercase "t" separator and "z" offset
	t, err := time.Parse(time.RFC3339, strings.ToUpper(s))
	if err != nil {
		return time.Time{}, typeMismatch(path, fmt.Sprintf("invalid RFC 3339 timestamp %q", s), err)
	}
	return t, nil
}

func asArray(raw json.RawMessage, path string) ([]json.RawMessage, error) {
	if len(raw) == 0 || raw[0] != '[' {
		return nil, typeMismatch(path, "expected array", nil)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, typeMismatch(path, "malformed array", err)
	}
	return elems, nil
}

func asStrings(raw json.RawMessage, path string) ([]string, error) {
	elems, err := asArray(raw, path)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(elems))
	for i, elem := range elems {
		s, err := asString(bytes.TrimSpace(elem), indexPath(path, i))
		if err != nil {
			return nil, err
		}
		values = append(values, s)
	}
	return values, nil
}

// asTrue reports whether raw is the literal true. Anything else, including
// values of other types, is not true and is not an error.
func asTrue(raw json.RawMessage, _ string) (bool, error) {
	return bytes.Equal(raw, []byte("true")), nil
}
