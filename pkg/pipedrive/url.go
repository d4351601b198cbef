package pipedrive

import "strings"

// DefaultBaseURL is the production Pipedrive v2 API root.
const DefaultBaseURL = "https://api.pipedrive.com/api/v2"

// NormalizeBaseURL trims surrounding whitespace and trailing slashes. An empty
// value yields DefaultBaseURL.
func NormalizeBaseURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return DefaultBaseURL
	}
	return base
}

// BuildURL appends the API token to base+path as the api_token query
// parameter, using '&' when path already has a query string and '?'
// otherwise. The token is appended verbatim.
func BuildURL(base, path, token string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return base + path + sep + "api_token=" + token
}
