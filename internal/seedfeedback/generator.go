package seedfeedback

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
)

// Weighted feedback type distribution, in percent.
const (
	acceptedWeight = 40
	executedWeight = 25
	rejectedWeight = 15
	modifiedWeight = 10
)

var (
	actions = []string{
		"boost_engagement",
		"defend_position",
		"activate_channel",
		"reactivate_relationship",
		"reduce_saturation",
	}
	channels = []string{"email", "phone", "meeting", "social", "event"}
	themes   = []string{"renewal", "upsell", "win-back", "awareness", "retention"}

	positiveOutcomes = []string{
		"engagement_improved",
		"competitive_defended",
		"channel_activated",
		"relationship_reactivated",
		"saturation_reduced",
	}
	negativeOutcomes = []string{
		"engagement_declined",
		"engagement_stable",
		"other_negative",
	}
)

// randomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomPick returns a uniformly chosen element of choices.
func randomPick(choices []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(choices))))
	return choices[n.Int64()]
}

// generateRecommendations creates the requested number of recommendations
// spread over a pool of synthetic entities.
func generateRecommendations(n int) []recommendation {
	recs := make([]recommendation, n)
	entityPool := maxInt(1, n/4)
	for i := range recs {
		entityNum, _ := rand.Int(rand.Reader, big.NewInt(int64(entityPool)))
		recs[i] = recommendation{
			ID:             uuid.NewString(),
			TargetEntityID: "entity-" + entityNum.String(),
			Action:         randomPick(actions),
			Channel:        randomPick(channels),
			Theme:          randomPick(themes),
			Confidence:     generateConfidence(),
		}
	}
	return recs
}

// generateConfidence skews confidence toward the middle of [0.3, 1.0], which
// is where a real model's recommendations tend to cluster.
func generateConfidence() float64 {
	// Average of two uniform draws gives a triangular distribution.
	v := 0.3 + 0.7*(randomFloat()+randomFloat())/2
	if v > 1.0 {
		v = 1.0
	}
	return v
}

// generateFeedbackType draws from the weighted distribution of operator
// responses. Higher-confidence recommendations are accepted more often.
func generateFeedbackType(confidence float64) string {
	roll := int(randomFloat() * 100)

	// Shift acceptance odds with confidence so calibration has signal.
	accepted := acceptedWeight + int((confidence-0.5)*40)
	switch {
	case roll < accepted:
		return "accepted"
	case roll < accepted+executedWeight:
		return "executed"
	case roll < accepted+executedWeight+rejectedWeight:
		return "rejected"
	case roll < accepted+executedWeight+rejectedWeight+modifiedWeight:
		return "modified"
	default:
		return "deferred"
	}
}

// generateOutcome produces a measured outcome, positive with probability
// roughly matching the recommendation confidence.
func generateOutcome(confidence float64) outcome {
	var outcomeType string
	if randomFloat() < confidence {
		outcomeType = randomPick(positiveOutcomes)
	} else {
		outcomeType = randomPick(negativeOutcomes)
	}
	value := -10 + randomFloat()*30
	engagement := 20 + randomFloat()*60
	return outcome{
		OutcomeType:     outcomeType,
		OutcomeValue:    &value,
		EngagementAfter: &engagement,
	}
}

// maxInt returns the maximum of two integers.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
