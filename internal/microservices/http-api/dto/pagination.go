package dto

import (
	"net/url"
	"strconv"
)

// Page is a limit/offset window over a list endpoint.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage reads limit and offset from the query. Invalid or missing values
// fall back to the defaults; limit is capped at max.
func ParsePage(q url.Values, defaultLimit, max int) Page {
	p := Page{Limit: defaultLimit}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		p.Limit = l
	}
	if p.Limit > max {
		p.Limit = max
	}
	if o, err := strconv.Atoi(q.Get("offset")); err == nil && o > 0 {
		p.Offset = o
	}
	return p
}

// Paginated is the list envelope shared by every collection.
type Paginated[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPaginated builds the envelope. base is the absolute request URL; next and
// previous keep its query and only rewrite limit/offset.
func NewPaginated[T any](results []T, count int64, page Page, base *url.URL) Paginated[T] {
	if results == nil {
		results = []T{}
	}
	out := Paginated[T]{Count: count, Results: results}

	if int64(page.Offset+page.Limit) < count {
		next := pageURL(base, page.Limit, page.Offset+page.Limit)
		out.Next = &next
	}
	if page.Offset > 0 {
		prev := page.Offset - page.Limit
		if prev < 0 {
			prev = 0
		}
		p := pageURL(base, page.Limit, prev)
		out.Previous = &p
	}
	return out
}

func pageURL(base *url.URL, limit, offset int) string {
	u := *base
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
