package service

import (
	"sort"

	"propsearch/internal/model"
)

// SortProperties orders candidates in place. Properties without a price
// sort last for price orders. An empty order keeps the store's order.
func SortProperties(props []model.Property, order string) {
	var less func(a, b model.Property) bool
	switch order {
	case model.SortNewest:
		less = func(a, b model.Property) bool { return a.CreatedAt.After(b.CreatedAt) }
	case model.SortOldest:
		less = func(a, b model.Property) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case model.SortPriceAsc:
		less = func(a, b model.Property) bool { return priceLess(a.Price, b.Price, false) }
	case model.SortPriceDesc:
		less = func(a, b model.Property) bool { return priceLess(a.Price, b.Price, true) }
	default:
		return
	}

	sort.SliceStable(props, func(i, j int) bool {
		return less(props[i], props[j])
	})
}

func priceLess(a, b *float64, desc bool) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	case desc:
		return *a > *b
	default:
		return *a < *b
	}
}

// Page is a pagination window.
type Page struct {
	Number     int
	Limit      int
	Total      int
	TotalPages int
	HasMore    bool
}

// Paginate returns the slice for the given 1-based page.
func Paginate[T any](items []T, page, limit int) ([]T, Page) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	total := len(items)
	totalPages := (total + limit - 1) / limit

	p := Page{Number: page, Limit: limit, Total: total, TotalPages: totalPages, HasMore: page < totalPages}

	start := (page - 1) * limit
	if start >= total {
		return []T{}, p
	}
	end := min(start+limit, total)
	return items[start:end], p
}
