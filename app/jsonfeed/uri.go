package jsonfeed

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var errEmptyURI = errors.New("empty URI")

// ParseURI parses s as an absolute or relative URI reference (RFC 3986).
// Unlike url.Parse it rejects characters outside the URI grammar, such as
// spaces or raw non-ASCII bytes, malformed percent escapes and delimiters
// out of place.
func ParseURI(s string) (*url.URL, error) {
	if s == "" {
		return nil, errEmptyURI
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' {
			if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
				return nil, fmt.Errorf("malformed percent escape at offset %d", i)
			}
			i += 2
			continue
		}
		if !isURIChar(c) {
			return nil, fmt.Errorf("invalid character %q at offset %d", c, i)
		}
	}

	if err := checkComponents(s); err != nil {
		return nil, err
	}

	return url.Parse(s)
}

// checkComponents splits s into scheme, authority, path, query and fragment
// and checks that each holds only the delimiters its grammar allows.
func checkComponents(s string) error {
	rest, fragment, _ := strings.Cut(s, "#")
	if strings.ContainsAny(fragment, "#[]") {
		return fmt.Errorf("invalid fragment %q", fragment)
	}

	rest, query, _ := strings.Cut(rest, "?")
	if strings.ContainsAny(query, "[]") {
		return fmt.Errorf("invalid query %q", query)
	}

	// A colon before the first slash ends the scheme
	if i := strings.IndexByte(rest, ':'); i >= 0 && !strings.Contains(rest[:i], "/") {
		if !isScheme(rest[:i]) {
			return fmt.Errorf("invalid scheme %q", rest[:i])
		}
		rest = rest[i+1:]
	}

	path := rest
	if strings.HasPrefix(rest, "//") {
		authority := rest[2:]
		if i := strings.IndexByte(authority, '/'); i >= 0 {
			authority, path = authority[:i], authority[i:]
		} else {
			path = ""
		}
		if err := checkAuthority(authority); err != nil {
			return err
		}
	}

	if strings.ContainsAny(path, "[]") {
		return fmt.Errorf("invalid path %q", path)
	}
	return nil
}

func checkAuthority(authority string) error {
	host := authority
	if i := strings.IndexByte(authority, '@'); i >= 0 {
		userinfo := authority[:i]
		host = authority[i+1:]
		if strings.ContainsAny(userinfo, "[]") || strings.Contains(host, "@") {
			return fmt.Errorf("invalid authority %q", authority)
		}
	}

	port := ""
	if strings.HasPrefix(host, "[") {
		end := strings.IndexByte(host, ']')
		if end < 0 || strings.ContainsAny(host[1:end], "[") {
			return fmt.Errorf("unterminated IP literal in %q", authority)
		}
		after := host[end+1:]
		if after != "" && after[0] != ':' {
			return fmt.Errorf("invalid host %q", host)
		}
		if after != "" {
			port = after[1:]
		}
	} else {
		if strings.ContainsAny(host, "[]") {
			return fmt.Errorf("invalid host %q", host)
		}
		if i := strings.IndexByte(host, ':'); i >= 0 {
			port = host[i+1:]
		}
	}

	for i := 0; i < len(port); i++ {
		if port[i] < '0' || port[i] > '9' {
			return fmt.Errorf("invalid port %q", port)
		}
	}
	return nil
}

func isScheme(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

func isURIChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}

	switch c {
	// unreserved
	case '-', '.', '_', '~':
		return true
	// gen-delims
	case ':', '/', '?', '#', '[', ']', '@':
		return true
	// sub-delims
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=':
		return true
	}
	return false
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
