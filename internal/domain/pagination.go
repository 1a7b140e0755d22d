package domain

// PageRequest identifies one server page of a filtered asset listing.
// Index is zero-based; the wire format is one-based.
type PageRequest struct {
	Filters  FilterSet
	Index    int
	PageSize int
}

// ServerPage returns the one-based page number sent to the server.
func (p PageRequest) ServerPage() int {
	if p.Index < 0 {
		return 1
	}
	return p.Index + 1
}

// AssetPage is the result of fetching one page of assets.
type AssetPage struct {
	Assets     []Asset
	Total      int64
	TotalPages int
}

// TotalPages calculates the number of pages for total items at pageSize.
func TotalPages(total int64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
