package model

// AllCategories is the sentinel category selector that disables filtering.
const AllCategories = "All"

// Collection is the static articles document (articles.json).
type Collection struct {
	GeneratedAt         string      `json:"generated_at"`
	Statistics          *Statistics `json:"statistics,omitempty"`
	CategoriesAvailable []string    `json:"categories_available"`
	Articles            []Article   `json:"articles"`
}

// Statistics are the precomputed aggregates shipped with a collection.
type Statistics struct {
	TotalArticles   int            `json:"total_articles"`
	AvgConfidence   float64        `json:"avg_confidence"`
	AvgRelevance    float64        `json:"avg_relevance"`
	AvgSentiment    float64        `json:"avg_sentiment"`
	AvgTrend        float64        `json:"avg_trend"`
	ActionableCount int            `json:"actionable_count"`
	Categories      map[string]int `json:"categories"`
}

// Categories returns the category selector values: "All" followed by the
// collection's advertised categories. When the document does not advertise
// any, the distinct article categories are used in first-seen order.
func Categories(c Collection) []string {
	if len(c.CategoriesAvailable) > 0 {
		return append([]string{AllCategories}, c.CategoriesAvailable...)
	}
	return append([]string{AllCategories}, DistinctCategories(c.Articles)...)
}

// DistinctCategories lists article categories in first-seen order.
func DistinctCategories(articles []Article) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, a := range articles {
		cat := a.Classification.Category
		if cat == "" || seen[cat] {
			continue
		}
		seen[cat] = true
		result = append(result, cat)
	}
	return result
}
