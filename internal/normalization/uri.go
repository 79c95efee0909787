package normalization

import (
	"regexp"
	"strings"
)

// IPFSScheme is the canonical prefix for content-addressed metadata URIs.
const IPFSScheme = "ipfs://"

// cidPattern finds a CID behind an ipfs path segment anywhere in a URI,
// e.g. https://gateway/ipfs/<cid> or ipfs/<cid>.
var cidPattern = regexp.MustCompile(`(?:ipfs://|/ipfs/|ipfs/)([a-zA-Z0-9]+)`)

// NormalizeURI canonicalizes a metadata URI to ipfs://<cid> when it embeds a
// CID. URIs that are empty, already canonical, or carry no CID are returned
// unchanged.
func NormalizeURI(uri string) string {
	if uri == "" || strings.HasPrefix(uri, IPFSScheme) {
		return uri
	}
	if m := cidPattern.FindStringSubmatch(uri); m != nil {
		return IPFSScheme + m[1]
	}
	return uri
}
