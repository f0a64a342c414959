package util

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Calculate converts a 1-based page and a size into offset and limit.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}

// Window returns the [lo, hi) bounds of one page over n items.
func Window(n, page, size int) (lo, hi int) {
	from, limit := Calculate(page, size)
	if from >= n {
		return n, n
	}
	hi = from + limit
	if hi > n {
		hi = n
	}
	return from, hi
}
