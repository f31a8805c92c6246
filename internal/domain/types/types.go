// Package types contains the closed enumerations shared across the application.
package types

// ActionType identifies a recommended (or executed) operator action.
type ActionType string

// Closed set of action types.
const (
	ActionBoostEngagement ActionType = "boost_engagement"
	ActionDefendPosition  ActionType = "defend_position"
	ActionActivateChannel ActionType = "activate_channel"
	ActionReactivate      ActionType = "reactivate_relationship"
	ActionReduceSaturate  ActionType = "reduce_saturation"
)

// AllActionTypes returns the closed set of action types in declaration order.
func AllActionTypes() []ActionType {
	return []ActionType{
		ActionBoostEngagement,
		ActionDefendPosition,
		ActionActivateChannel,
		ActionReactivate,
		ActionReduceSaturate,
	}
}

// IsValid reports whether a is a member of the closed action set.
func (a ActionType) IsValid() bool {
	switch a {
	case ActionBoostEngagement, ActionDefendPosition, ActionActivateChannel,
		ActionReactivate, ActionReduceSaturate:
		return true
	default:
		return false
	}
}

// Channel identifies the delivery channel of an action.
type Channel string

// Closed set of channels.
const (
	ChannelEmail   Channel = "email"
	ChannelPhone   Channel = "phone"
	ChannelMeeting Channel = "meeting"
	ChannelSocial  Channel = "social"
	ChannelEvent   Channel = "event"
)

// AllChannels returns the closed set of channels in declaration order.
func AllChannels() []Channel {
	return []Channel{ChannelEmail, ChannelPhone, ChannelMeeting, ChannelSocial, ChannelEvent}
}

// IsValid reports whether c is a member of the closed channel set.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelPhone, ChannelMeeting, ChannelSocial, ChannelEvent:
		return true
	default:
		return false
	}
}

// RecommendationStatus is the lifecycle state of a recommendation.
type RecommendationStatus string

// Recommendation lifecycle states.
const (
	StatusPending    RecommendationStatus = "pending"
	StatusAccepted   RecommendationStatus = "accepted"
	StatusRejected   RecommendationStatus = "rejected"
	StatusOverridden RecommendationStatus = "overridden"
	StatusDeferred   RecommendationStatus = "deferred"
	StatusExpired    RecommendationStatus = "expired"
)

// FeedbackType classifies how an operator responded to a recommendation.
type FeedbackType string

// Operator feedback types.
const (
	FeedbackAccepted FeedbackType = "accepted"
	FeedbackRejected FeedbackType = "rejected"
	FeedbackModified FeedbackType = "modified"
	FeedbackDeferred FeedbackType = "deferred"
	FeedbackExpired  FeedbackType = "expired"
	FeedbackExecuted FeedbackType = "executed"
)

// IsValid reports whether f is a member of the closed feedback set.
func (f FeedbackType) IsValid() bool {
	switch f {
	case FeedbackAccepted, FeedbackRejected, FeedbackModified,
		FeedbackDeferred, FeedbackExpired, FeedbackExecuted:
		return true
	default:
		return false
	}
}

// CountsAsAccepted reports whether f counts toward acceptance statistics.
func (f FeedbackType) CountsAsAccepted() bool {
	return f == FeedbackAccepted || f == FeedbackExecuted
}

// StatusForFeedback maps an operator feedback type to the recommendation
// status it induces. Unknown feedback types map to pending.
func StatusForFeedback(f FeedbackType) RecommendationStatus {
	switch f {
	case FeedbackAccepted, FeedbackExecuted:
		return StatusAccepted
	case FeedbackRejected:
		return StatusRejected
	case FeedbackModified:
		return StatusOverridden
	case FeedbackDeferred:
		return StatusDeferred
	case FeedbackExpired:
		return StatusExpired
	default:
		return StatusPending
	}
}

// OutcomeType classifies the measured downstream effect of an executed
// recommendation.
type OutcomeType string

// Outcome categories. OutcomePending marks an event whose effect has not
// been measured yet.
const (
	OutcomePending             OutcomeType = "pending"
	OutcomeEngagementImproved  OutcomeType = "engagement_improved"
	OutcomeEngagementDeclined  OutcomeType = "engagement_declined"
	OutcomeEngagementStable    OutcomeType = "engagement_stable"
	OutcomeCompetitiveDefended OutcomeType = "competitive_defended"
	OutcomeChannelActivated    OutcomeType = "channel_activated"
	OutcomeRelationshipRevived OutcomeType = "relationship_reactivated"
	OutcomeSaturationReduced   OutcomeType = "saturation_reduced"
	OutcomeOtherNegative       OutcomeType = "other_negative"
)

// IsValid reports whether o is a member of the closed outcome set.
func (o OutcomeType) IsValid() bool {
	switch o {
	case OutcomePending, OutcomeEngagementImproved, OutcomeEngagementDeclined,
		OutcomeEngagementStable, OutcomeCompetitiveDefended, OutcomeChannelActivated,
		OutcomeRelationshipRevived, OutcomeSaturationReduced, OutcomeOtherNegative:
		return true
	default:
		return false
	}
}

// IsMeasured reports whether o has transitioned away from pending.
func (o OutcomeType) IsMeasured() bool {
	return o != OutcomePending && o.IsValid()
}

// IsPositive reports whether o belongs to the closed positive-outcome set
// counted as a success in rate calculations.
func (o OutcomeType) IsPositive() bool {
	switch o {
	case OutcomeEngagementImproved, OutcomeCompetitiveDefended, OutcomeChannelActivated,
		OutcomeRelationshipRevived, OutcomeSaturationReduced:
		return true
	default:
		return false
	}
}

// Confidence bucket names used by acceptance breakdowns.
const (
	BucketHigh   = "high"
	BucketMedium = "medium"
	BucketLow    = "low"
)

// Confidence bucket thresholds.
const (
	highConfidenceFloor   = 0.75
	mediumConfidenceFloor = 0.5
)

// ConfidenceBucket partitions a confidence value into high (>=0.75),
// medium ([0.5,0.75)) or low (<0.5).
func ConfidenceBucket(confidence float64) string {
	switch {
	case confidence >= highConfidenceFloor:
		return BucketHigh
	case confidence >= mediumConfidenceFloor:
		return BucketMedium
	default:
		return BucketLow
	}
}
