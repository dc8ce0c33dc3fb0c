package result

import "github.com/swapcycle/swapcycle/internal/domain/listing"

// Page is one paginated search response.
type Page struct {
	Results []listing.Item `json:"results"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	Pages   int            `json:"pages"`
	PerPage int            `json:"per_page"`
}

// Pagination is the list position shown next to the results.
type Pagination struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
}

// Pagination extracts the position as reported by the server.
// Missing values fall back to a single empty page.
func (p Page) Pagination() Pagination {
	out := Pagination{Total: p.Total, Page: p.Page, Pages: p.Pages, PerPage: p.PerPage}
	if out.Page < 1 {
		out.Page = 1
	}
	if out.Pages < 1 {
		out.Pages = 1
	}
	return out
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p Pagination) HasNext() bool { return p.Page < p.Pages }
