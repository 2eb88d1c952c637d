package feed

// pageWindowRadius is how many pages are listed on each side of the current one.
const pageWindowRadius = 2

// PageWindow returns the page numbers to offer around page, limited to
// [1, totalPages].
func PageWindow(page, totalPages int) []int {
	if totalPages < 1 {
		return nil
	}

	start := max(1, page-pageWindowRadius)
	end := min(totalPages, page+pageWindowRadius)
	if start > end {
		return nil
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}
