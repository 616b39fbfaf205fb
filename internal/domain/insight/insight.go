// Package insight derives deterministic investment opinions from consensus data.
package insight

import "github.com/kailas-cloud/consdex/internal/domain/consensus"

// Confidence grades how strongly the rating distribution backs an opinion.
type Confidence string

// Confidence constants.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Opinion is a derived overall recommendation for a security.
type Opinion struct {
	Recommendation string
	Confidence     Confidence
}

// Derive maps a consensus summary onto an opinion using fixed thresholds:
// buy share above 60% is a strong buy, above 40% a buy, sell share above
// 40% a sell, anything else a hold.
func Derive(s consensus.Summary) Opinion {
	switch {
	case s.BuyRatio() > 0.6:
		return Opinion{Recommendation: "Strong Buy", Confidence: ConfidenceHigh}
	case s.BuyRatio() > 0.4:
		return Opinion{Recommendation: "Buy", Confidence: ConfidenceMedium}
	case s.SellRatio() > 0.4:
		return Opinion{Recommendation: "Sell", Confidence: ConfidenceMedium}
	default:
		return Opinion{Recommendation: "Hold", Confidence: ConfidenceLow}
	}
}
