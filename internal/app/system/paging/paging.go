// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows returned by list endpoints.
const PageSize = 50

// MaxPageSize caps the "limit" query parameter.
const MaxPageSize = 200

// Page is an offset window over a listing.
type Page struct {
	Limit  int64
	Offset int64
}

// Parse reads "limit" and "offset" from the query string. A missing or
// invalid limit falls back to PageSize and is clamped to MaxPageSize; a
// missing or negative offset is 0.
func Parse(r *http.Request) Page {
	p := Page{Limit: PageSize}
	if n, ok := parseInt(query.Get(r, "limit")); ok && n > 0 {
		p.Limit = min(n, MaxPageSize)
	}
	if n, ok := parseInt(query.Get(r, "offset")); ok && n > 0 {
		p.Offset = n
	}
	return p
}

func parseInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}
