package identity

import (
	"net/http"
	"strings"

	"github.com/transitops/govern/ratelimit"
)

// CategoryForRequest maps a request's URL shape to a limit profile
// category.
func CategoryForRequest(r *http.Request) string {
	return CategoryForPath(r.URL.Path, r.URL.RawQuery)
}

// CategoryForPath resolves a category from a URL path and raw query.
// Export detection also matches format= queries because exports are
// served from regular endpoints with a format parameter.
func CategoryForPath(path, rawQuery string) string {
	switch {
	case strings.Contains(path, "/search"):
		return ratelimit.CategorySearch
	case strings.Contains(path, "/export") || strings.Contains(rawQuery, "format="):
		return ratelimit.CategoryExport
	case strings.Contains(path, "/system"):
		return ratelimit.CategorySystem
	default:
		return ratelimit.CategoryDefault
	}
}
