package features

import "strings"

// parts holds the components of a URL as split by splitURL.
type parts struct {
	scheme    string // lower-cased
	authority string // host[:port], userinfo included when present
	path      string
	query     string
	fragment  string
}

// splitURL splits raw into scheme, authority, path, query and fragment.
//
// net/url rejects many of the malformed inputs phishing URLs are made of
// (bad escapes, spaces in the host, stray brackets), so splitting is done
// leniently here: a component that cannot be found is left empty and
// nothing is ever rejected.
func splitURL(raw string) parts {
	s := strings.TrimLeft(raw, "\x00\x01\x02\x03\x04\x05\x06\x07\x08\t\n\x0b\x0c\r\x0e\x0f"+
		"\x10\x11\x12\x13\x14\x15\x16\x17\x18\x19\x1a\x1b\x1c\x1d\x1e\x1f ")
	s = strings.NewReplacer("\t", "", "\r", "", "\n", "").Replace(s)

	var p parts

	if i := strings.IndexByte(s, ':'); i > 0 && isScheme(s[:i]) {
		p.scheme = strings.ToLower(s[:i])
		s = s[i+1:]
	}

	if strings.HasPrefix(s, "//") {
		rest := s[2:]
		end := strings.IndexAny(rest, "/?#")
		if end < 0 {
			end = len(rest)
		}
		p.authority = rest[:end]
		s = rest[end:]
	}

	if i := strings.IndexByte(s, '#'); i >= 0 {
		p.fragment = s[i+1:]
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		p.query = s[i+1:]
		s = s[:i]
	}
	p.path = s

	return p
}

// isScheme reports whether s is a syntactically valid URL scheme.
func isScheme(s string) bool {
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

// hostOf strips userinfo, port and a trailing dot from an authority and
// lower-cases the result.
func hostOf(authority string) string {
	host := authority
	if i := strings.LastIndexByte(host, '@'); i >= 0 {
		host = host[i+1:]
	}
	if strings.HasPrefix(host, "[") {
		if end := strings.IndexByte(host, ']'); end >= 0 {
			host = host[1:end]
		} else {
			host = host[1:]
		}
	} else if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.TrimSuffix(strings.ToLower(host), ".")
}
