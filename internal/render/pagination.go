package render

import "strconv"

// PageLink is one pagination button.
type PageLink struct {
	Label    string
	Page     int
	Disabled bool
	Active   bool
}

// TotalPages is ceil(total/perPage).
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// BuildPagination returns «, a window of two pages either side of page, and
// ». Nothing is returned for a single page.
func BuildPagination(page, totalPages int) []PageLink {
	if totalPages <= 1 {
		return nil
	}
	links := []PageLink{{Label: "«", Page: page - 1, Disabled: page <= 1}}
	start := max(1, page-2)
	end := min(totalPages, page+2)
	for i := start; i <= end; i++ {
		links = append(links, PageLink{Label: strconv.Itoa(i), Page: i, Active: i == page})
	}
	return append(links, PageLink{Label: "»", Page: page + 1, Disabled: page >= totalPages})
}
