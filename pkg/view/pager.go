package view

import (
	"net/url"
	"strconv"
)

type Pager struct {
	Page       int
	TotalPages int
	Total      int64
	PrevURL    string
	NextURL    string
}

// NewPager builds prev/next links that keep every other query value.
func NewPager(path string, query url.Values, page, totalPages int, total int64) Pager {
	p := Pager{Page: page, TotalPages: totalPages, Total: total}
	link := func(n int) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = append([]string(nil), v...)
		}
		q.Set("page", strconv.Itoa(n))
		return path + "?" + q.Encode()
	}
	if page > 1 {
		p.PrevURL = link(page - 1)
	}
	if page < totalPages {
		p.NextURL = link(page + 1)
	}
	return p
}
