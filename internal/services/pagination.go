package services

// Pagination describes one page of a listing.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Limit int   `json:"limit"`
}

const maxPageSize = 100

// normalizePage applies defaults and bounds to page and limit.
func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func newPagination(total int64, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Total: total, Page: page, Pages: pages, Limit: limit}
}
