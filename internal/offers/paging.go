package offers

import "strconv"

const (
	defaultPageSize = 6
	maxPageSize     = 100
)

// parsePaging reads page/page_size query values, applying the default and cap.
// Malformed or out-of-range values fall back to the defaults.
func parsePaging(pageParam, sizeParam string) (page, pageSize int) {
	page = 1
	pageSize = defaultPageSize

	if pageParam != "" {
		if v, err := strconv.Atoi(pageParam); err == nil && v > 0 {
			page = v
		}
	}
	if sizeParam != "" {
		if v, err := strconv.Atoi(sizeParam); err == nil && v > 0 {
			pageSize = v
			if pageSize > maxPageSize {
				pageSize = maxPageSize
			}
		}
	}
	return page, pageSize
}
