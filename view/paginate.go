package view

// Ellipsis marks a gap in the page-number window returned by PageNumbers.
const Ellipsis = 0

// maxPageButtons is the window size below which every page is listed.
const maxPageButtons = 5

// TotalPages returns ceil(n/size), never less than 1.
func TotalPages(n, size int) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// ClampPage forces page into [1, TotalPages(n, size)].
func ClampPage(page, n, size int) int {
	if page < 1 {
		return 1
	}
	if total := TotalPages(n, size); page > total {
		return total
	}
	return page
}

// Paginate returns rows [(page-1)*size, page*size) clipped to the slice.
// Out-of-range pages yield an empty slice.
func Paginate[T any](rows []T, page, size int) []T {
	if size <= 0 || page < 1 {
		return rows[:0]
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return rows[len(rows):]
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// PageRange returns the 1-based positions of the first and last row shown on
// page, as in "Showing from to to of n". Both are 0 when there are no rows.
func PageRange(page, size, n int) (from, to int) {
	if n == 0 || size <= 0 {
		return 0, 0
	}
	start := (page - 1) * size
	from = start + 1
	if from > n {
		from = n
	}
	to = start + size
	if to > n {
		to = n
	}
	return from, to
}

// PageNumbers returns the page buttons to show for the current page: every
// page when there are few, otherwise the first and last page around a small
// window, with Ellipsis where pages are skipped.
func PageNumbers(current, total int) []int {
	if total <= maxPageButtons {
		pages := make([]int, 0, total)
		for i := 1; i <= total; i++ {
			pages = append(pages, i)
		}
		return pages
	}

	pages := []int{1}
	if current > 3 {
		pages = append(pages, Ellipsis)
	}

	start := max(2, current-1)
	end := min(total-1, current+1)
	if current <= 3 {
		end = 4
	}
	if current >= total-2 {
		start = total - 3
	}
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}

	if current < total-2 {
		pages = append(pages, Ellipsis)
	}
	return append(pages, total)
}
