package model

// Category identifies one of the four audit groupings produced by an
// audit run. It is a closed set; anything else is a client error.
type Category string

const (
	CategoryPerformance   Category = "performance"
	CategoryAccessibility Category = "accessibility"
	CategoryBestPractices Category = "bestPractices"
	CategorySEO           Category = "seo"
)

// Categories returns all categories in their canonical order.
func Categories() []Category {
	return []Category{
		CategoryPerformance,
		CategoryAccessibility,
		CategoryBestPractices,
		CategorySEO,
	}
}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryPerformance, CategoryAccessibility, CategoryBestPractices, CategorySEO:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}
