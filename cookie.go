package fawkes

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const cookieHeaderName = "Cookie"

const asciiSpace = " \t\r\n"

// isTokenName reports whether str is a valid HTTP token.
//
//	token = 1*tchar
//	tchar = "!" / "#" / "$" / "%" / "&" / "'" / "*" / "+" / "-" / "." /
//	        "^" / "_" / "`" / "|" / "~" / DIGIT / ALPHA
func isTokenName(str string) bool {
	if str == "" {
		return false
	}
	for i := 0; i < len(str); i++ {
		c := str[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// decodeCookieValue validates value as percent-encoded unreserved bytes and
// decodes it. Values carrying any other character are rejected.
func decodeCookieValue(value string) (string, bool) {
	decoded := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		switch c := value[i]; {
		case isUnreserved(c):
			decoded = append(decoded, c)
		case c == '%':
			if i+2 >= len(value) || !isHexDigit(value[i+1]) || !isHexDigit(value[i+2]) {
				return "", false
			}
			decoded = append(decoded, unhex(value[i+1])<<4|unhex(value[i+2]))
			i += 2
		default:
			return "", false
		}
	}
	return string(decoded), true
}

// escapeCookieValue percent-escapes every byte outside the unreserved set.
func escapeCookieValue(value string) string {
	const upperhex = "0123456789ABCDEF"

	var sb strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&0xf])
	}
	return sb.String()
}

// CookieView holds the cookies parsed from a request's Cookie header
// fields. Values are percent-decoded.
type CookieView struct {
	cookies map[string]string
}

func parseCookieHeader(fields []string) CookieView {
	view := CookieView{cookies: make(map[string]string)}
	for _, field := range fields {
		view.parseCookieValue(field)
	}
	return view
}

func (v CookieView) parseCookieValue(cookieValue string) {
	for _, pair := range strings.Split(cookieValue, ";") {
		trimmed := strings.Trim(pair, asciiSpace)
		if trimmed == "" {
			continue
		}

		// Must be `key=value`; the value is allowed to be empty but the name
		// cannot be. RFC does not allow a bare name without `=`, however a
		// lot of popular frameworks choose to support this case.
		fields := strings.Split(trimmed, "=")
		if len(fields) > 2 || fields[0] == "" {
			slog.Warn("Malformed cookie entry, skipped", "cookie", trimmed)
			continue
		}

		name := fields[0]
		value := ""
		if len(fields) == 2 {
			value = fields[1]
		}

		if !isTokenName(name) {
			slog.Warn("Name of the cookie entry is not a http token, skipped", "name", name)
			continue
		}

		decoded, ok := decodeCookieValue(value)
		if !ok {
			slog.Warn("Invalid value of the cookie entry, skipped", "name", name, "value", value)
			continue
		}

		// If there are multiple pairs with the same name, only keep the
		// first, per RFC first-match policy.
		if _, exists := v.cookies[name]; !exists {
			v.cookies[name] = decoded
		}
	}
}

// Empty reports whether no cookie was parsed.
func (v CookieView) Empty() bool {
	return len(v.cookies) == 0
}

// Len returns the number of parsed cookies.
func (v CookieView) Len() int {
	return len(v.cookies)
}

// Contains reports whether a cookie with the given name was parsed.
func (v CookieView) Contains(name string) bool {
	_, ok := v.cookies[name]
	return ok
}

// Get returns the decoded value of the named cookie.
func (v CookieView) Get(name string) (string, bool) {
	value, ok := v.cookies[name]
	return value, ok
}

// SameSitePolicy controls the SameSite cookie attribute.
type SameSitePolicy uint8

const (
	// SameSiteDefault omits the attribute.
	SameSiteDefault SameSitePolicy = iota
	SameSiteStrict
	SameSiteLax
	SameSiteNone
)

func (p SameSitePolicy) String() string {
	switch p {
	case SameSiteStrict:
		return "Strict"
	case SameSiteLax:
		return "Lax"
	case SameSiteNone:
		return "None"
	default:
		return "Default"
	}
}

// Cookie is a Set-Cookie header under construction. Invalid attributes are
// skipped at serialization; an invalid name aborts the whole cookie.
type Cookie struct {
	Name  string
	Value string // percent-escaped when serialized

	Path   string
	Domain string

	// MaxAge is emitted when non-zero; a negative value tells the client to
	// expire the cookie immediately.
	MaxAge int
	// Expires is emitted when non-zero. Per RFC the year cannot be less
	// than 1601.
	Expires time.Time

	HTTPOnly bool
	Secure   bool

	SameSite SameSitePolicy
}

func validCookiePathValue(value string) bool {
	for i := 0; i < len(value); i++ {
		if c := value[i]; c < 0x20 || c >= 0x7f || c == ';' {
			return false
		}
	}
	return true
}

func validCookieDomain(domain string) bool {
	// Leading `.` is no longer required but still tolerated.
	domain = strings.TrimPrefix(domain, ".")
	if domain == "" || len(domain) > 255 {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '-') {
				return false
			}
		}
	}
	return true
}

func validExpires(expires time.Time) bool {
	return expires.Year() >= 1601
}

// String serializes the cookie for a Set-Cookie header. Returns an empty
// string if the cookie name is not a valid token.
func (c *Cookie) String() string {
	if c.Name == "" || !isTokenName(c.Name) {
		slog.Error("Invalid cookie name, abort", "name", c.Name)
		return ""
	}

	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte('=')
	sb.WriteString(escapeCookieValue(c.Value))

	if c.Path != "" {
		if validCookiePathValue(c.Path) {
			sb.WriteString("; Path=")
			sb.WriteString(c.Path)
		} else {
			slog.Warn("Invalid path value, skipped", "path", c.Path)
		}
	}

	if c.Domain != "" {
		if validCookieDomain(c.Domain) {
			sb.WriteString("; Domain=")
			sb.WriteString(strings.TrimPrefix(c.Domain, "."))
		} else {
			slog.Warn("Invalid domain value, skipped", "domain", c.Domain)
		}
	}

	if c.MaxAge != 0 {
		sb.WriteString("; Max-Age=")
		sb.WriteString(strconv.Itoa(c.MaxAge))
	}

	if !c.Expires.IsZero() {
		if validExpires(c.Expires) {
			sb.WriteString("; Expires=")
			sb.WriteString(c.Expires.UTC().Format("Mon, 02 Jan 2006 15:04:05") + " GMT")
		} else {
			slog.Warn("Invalid expires value, skipped", "expires", c.Expires)
		}
	}

	if c.Secure {
		sb.WriteString("; Secure")
	}

	if c.HTTPOnly {
		sb.WriteString("; HttpOnly")
	}

	if c.SameSite != SameSiteDefault {
		sb.WriteString("; SameSite=")
		sb.WriteString(c.SameSite.String())
	}

	return sb.String()
}
