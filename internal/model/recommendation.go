package model

// Recommendation is the categorical outcome of a payback evaluation.
type Recommendation string

const (
	RecommendationImplement        Recommendation = "implement"
	RecommendationConsider         Recommendation = "consider"
	RecommendationReject           Recommendation = "reject"
	RecommendationInsufficientData Recommendation = "insufficient_data"
)

// Visual categories used by the presentation layer.
const (
	CategoryGood   = "good"
	CategoryMedium = "medium"
	CategoryBad    = "bad"
	CategoryMuted  = "muted"
)

// Label returns the display label shown next to the payback period.
func (r Recommendation) Label() string {
	switch r {
	case RecommendationImplement:
		return "🟢 Implement"
	case RecommendationConsider:
		return "🟡 Consider"
	case RecommendationReject:
		return "🔴 Reject"
	default:
		return "Insufficient data"
	}
}

// Category returns the visual category for the recommendation.
func (r Recommendation) Category() string {
	switch r {
	case RecommendationImplement:
		return CategoryGood
	case RecommendationConsider:
		return CategoryMedium
	case RecommendationReject:
		return CategoryBad
	default:
		return CategoryMuted
	}
}
