package product

import (
	"slices"
	"strings"
)

// SortOrder names a catalog ordering.
type SortOrder string

const (
	SortDefault   SortOrder = ""
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortRating    SortOrder = "rating"
)

// Valid reports whether s is a known ordering.
func (s SortOrder) Valid() bool {
	switch s {
	case SortDefault, SortPriceAsc, SortPriceDesc, SortRating:
		return true
	}
	return false
}

// Query narrows and orders a product list.
type Query struct {
	// Category matches case-insensitively. Empty matches every category.
	Category string
	NewOnly  bool
	// Text is a case-insensitive substring of the product name.
	Text string
	Sort SortOrder
}

// Search returns the products matching q. The input slice is not modified and
// the default order is the catalog order.
func Search(products []Product, q Query) []Product {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			continue
		}
		if q.NewOnly && !p.IsNew {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(p.Name), text) {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b Product) int { return a.Price.Cmp(b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b Product) int { return b.Price.Cmp(a.Price) })
	case SortRating:
		slices.SortStableFunc(out, func(a, b Product) int {
			if a.Rating != b.Rating {
				return b.Rating - a.Rating
			}
			return b.Reviews - a.Reviews
		})
	}
	return out
}

// Category is a catalog section with its product count.
type Category struct {
	Name  string
	Count int
}

// Categories returns the distinct categories in first-seen order.
func Categories(products []Product) []Category {
	var out []Category
	index := make(map[string]int)
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if i, ok := index[p.Category]; ok {
			out[i].Count++
			continue
		}
		index[p.Category] = len(out)
		out = append(out, Category{Name: p.Category, Count: 1})
	}
	return out
}
