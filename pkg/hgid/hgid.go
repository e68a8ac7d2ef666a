// Package hgid parses and composes the federation's foreign identifiers.
//
// A foreign identifier is either a bare UUID (local) or a composite value
// embedding the owning grid's endpoint: `<uuid>;<url>`. Universal user
// identifiers carry an optional trailing display name:
// `<uuid>;<url>;First Last`. The semicolon layout is parsed byte-for-byte
// by independently operated grids and MUST NOT change.
//
// Parsing never fails: every malformed or purely local input classifies as
// "local, no endpoint". The functions are pure, allocation-light and safe
// on attacker-controlled strings (no regexps, bounded work).
package hgid

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Separator joins the local id, the endpoint and the optional display name.
const Separator = ";"

// ParseForeign splits a foreign identifier into its endpoint and bare local
// id. Inputs with no embedded endpoint, a non-UUID head or an endpoint that
// is not an absolute http(s) URL come back as `("", id)`: callers must
// treat that as "operate locally", never as an error.
func ParseForeign(id string) (endpoint, localID string) {
	head, rest, found := strings.Cut(id, Separator)
	if !found {
		return "", id
	}

	// A trailing display-name segment (user identifier form) is not part
	// of the endpoint.
	rawURL, _, _ := strings.Cut(rest, Separator)

	if _, err := uuid.Parse(head); err != nil {
		return "", id
	}
	if !validEndpoint(rawURL) {
		return "", id
	}
	return rawURL, head
}

// ParseUser decomposes a universal user identifier. Same no-throw contract
// as ParseForeign; `displayName` is empty when the identifier carries none.
func ParseUser(id string) (endpoint, localID, displayName string) {
	head, rest, found := strings.Cut(id, Separator)
	if !found {
		return "", id, ""
	}

	rawURL, name, _ := strings.Cut(rest, Separator)

	if _, err := uuid.Parse(head); err != nil {
		return "", id, ""
	}
	if !validEndpoint(rawURL) {
		return "", id, ""
	}
	return rawURL, head, name
}

// Compose is the inverse of ParseForeign: it re-embeds an endpoint into a
// bare local id. An empty endpoint yields the bare id unchanged.
func Compose(localID, endpoint string) string {
	if endpoint == "" {
		return localID
	}
	return localID + Separator + endpoint
}

// ComposeUser builds a universal user identifier.
func ComposeUser(localID, endpoint, displayName string) string {
	if endpoint == "" {
		return localID
	}
	if displayName == "" {
		return localID + Separator + endpoint
	}
	return localID + Separator + endpoint + Separator + displayName
}

// IsForeign reports whether an identifier embeds a remote endpoint.
func IsForeign(id string) bool {
	endpoint, _ := ParseForeign(id)
	return endpoint != ""
}

func validEndpoint(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}
