// Enumeration-like type for content mimetypes and client Accept preferences.
package mimetype

import (
	"strings"
)

/*
MimeType is used to enumerate the default representation for response formats.
Non default MimeTypes can be used by wrapping a custom string:

	MimeType("text/csv")
*/
type MimeType string

const (
	JSON = MimeType("application/json")
	BSON = MimeType("application/bson")
	YAML = MimeType("application/yaml")
	XML  = MimeType("application/xml")
	HTML = MimeType("text/html")
	TEXT = MimeType("text/plain")
	// ANY is the full wildcard media range.
	ANY = MimeType("*/*")
	// UNKNOWN is used when the incoming string is blank
	UNKNOWN = MimeType("")
)

// Names each default mimetype is known by. Anything else is kept verbatim, so a
// structured suffix like "image/svg+xml" is not mistaken for XML.
var aliases = map[string]MimeType{
	"json":               JSON,
	"x-json":             JSON,
	"application/json":   JSON,
	"application/x-json": JSON,
	"text/json":          JSON,

	"bson":               BSON,
	"x-bson":             BSON,
	"application/bson":   BSON,
	"application/x-bson": BSON,

	"yaml":               YAML,
	"x-yaml":             YAML,
	"application/yaml":   YAML,
	"application/x-yaml": YAML,
	"text/yaml":          YAML,
	"text/x-yaml":        YAML,

	"xml":             XML,
	"x-xml":           XML,
	"application/xml": XML,
	"text/xml":        XML,

	"html":                  HTML,
	"text/html":             HTML,
	"xhtml":                 HTML,
	"application/xhtml+xml": HTML,

	"text":       TEXT,
	"text/plain": TEXT,

	"*":   ANY,
	"*/*": ANY,
}

// Interface for object used to read headers such as http.Request.Header or
// http.Response.Header
type headerFetcher interface {
	Get(string) string
}

// Extract content type from a message / request header.
func FromHeader(headers headerFetcher) MimeType {
	return FromString(headers.Get("Content-Type"))
}

/*
Convert MimeType from a string. Ignores case and media type parameters. If the
MimeType is a default type, multiple formats are respected. For instance, all of the
following will yield "mimetype.JSON":

• "application/json"

• "application/JSON; charset=utf-8"

• "application/x-json"

• "json"

• "x-json"

Types without an alias come back lowercased but otherwise unchanged:
"application/vnd.api+json" stays itself and does not become JSON.
*/
func FromString(incoming string) MimeType {
	if semicolon := strings.IndexByte(incoming, ';'); semicolon >= 0 {
		incoming = incoming[:semicolon]
	}
	incoming = strings.ToLower(strings.TrimSpace(incoming))

	if incoming == "" {
		return UNKNOWN
	}
	if known, ok := aliases[incoming]; ok {
		return known
	}
	return MimeType(incoming)
}

// Type returns the top-level type, "application" for "application/json".
func (mimeType MimeType) Type() string {
	slash := strings.IndexByte(string(mimeType), '/')
	if slash < 0 {
		return string(mimeType)
	}
	return string(mimeType[:slash])
}

// Subtype returns the part after the slash, "json" for "application/json".
func (mimeType MimeType) Subtype() string {
	slash := strings.IndexByte(string(mimeType), '/')
	if slash < 0 {
		return ""
	}
	return string(mimeType[slash+1:])
}

// IsWildcard reports whether the mimetype is a media range like "*/*" or "text/*".
func (mimeType MimeType) IsWildcard() bool {
	return mimeType == ANY || mimeType.Subtype() == "*"
}

// Covers reports whether other falls inside the media range described by mimeType.
// A concrete mimetype only covers itself.
func (mimeType MimeType) Covers(other MimeType) bool {
	switch {
	case mimeType == other:
		return true
	case mimeType == ANY:
		return other != UNKNOWN
	case mimeType.Subtype() == "*":
		return mimeType.Type() == other.Type()
	default:
		return false
	}
}

func (mimeType MimeType) String() string {
	return string(mimeType)
}
