// Package plan defines the closed catalog of billing tiers, their limits
// and feature gates. Everything here is a pure decision over static data.
package plan

import (
	"fmt"
	"strings"
)

type Tier string

const (
	TierFree       Tier = "free"
	TierStarter    Tier = "starter"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

type Feature string

const (
	FeatureScheduling Feature = "scheduling"
	FeatureExtraction Feature = "extraction"
	FeatureMultimedia Feature = "multimedia"
)

// Limits describes the caps attached to a tier. Nil means unlimited.
// Billable seats exclude owner and admin.
type Limits struct {
	DailyMessages      *int
	DailyUploads       *int
	Seats              *int
	AgencyBots         *int
	SummarizeThreshold int
	Features           map[Feature]bool
}

var catalog = map[Tier]Limits{
	TierFree: {
		DailyMessages:      intPtr(20),
		DailyUploads:       intPtr(5),
		Seats:              intPtr(2),
		AgencyBots:         intPtr(1),
		SummarizeThreshold: 10,
		Features:           map[Feature]bool{},
	},
	TierStarter: {
		DailyMessages:      intPtr(200),
		DailyUploads:       intPtr(50),
		Seats:              intPtr(5),
		AgencyBots:         intPtr(3),
		SummarizeThreshold: 14,
		Features: map[Feature]bool{
			FeatureScheduling: true,
		},
	},
	TierPro: {
		DailyMessages:      intPtr(1000),
		DailyUploads:       intPtr(200),
		Seats:              intPtr(20),
		AgencyBots:         intPtr(10),
		SummarizeThreshold: 20,
		Features: map[Feature]bool{
			FeatureScheduling: true,
			FeatureExtraction: true,
		},
	},
	TierEnterprise: {
		DailyMessages:      nil,
		DailyUploads:       nil,
		Seats:              nil,
		AgencyBots:         nil,
		SummarizeThreshold: 30,
		Features: map[Feature]bool{
			FeatureScheduling: true,
			FeatureExtraction: true,
			FeatureMultimedia: true,
		},
	},
}

// Normalize folds an arbitrary stored plan string into the closed tier
// enum. Unrecognized values fold to the lowest tier.
func Normalize(raw string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierStarter:
		return TierStarter
	case TierPro:
		return TierPro
	case TierEnterprise:
		return TierEnterprise
	default:
		return TierFree
	}
}

// LimitsFor is total over the tier enum.
func LimitsFor(tier Tier) Limits {
	limits, ok := catalog[tier]
	if !ok {
		return catalog[TierFree]
	}
	return limits
}

func FeatureEnabled(tier Tier, feature Feature) bool {
	return LimitsFor(tier).Features[feature]
}

// SummarizeThreshold returns the message count at which a conversation
// becomes due for summarization on the given tier.
func SummarizeThreshold(tier Tier) int {
	return LimitsFor(tier).SummarizeThreshold
}

// UpgradeRequiredError is surfaced verbatim to the caller so the UI can
// render the paywall for the exact plan/feature pair.
type UpgradeRequiredError struct {
	Plan    Tier    `json:"plan"`
	Feature Feature `json:"feature"`
}

func (e *UpgradeRequiredError) Error() string {
	return fmt.Sprintf("upgrade_required: feature %q not available on plan %q", e.Feature, e.Plan)
}

// RequireFeature returns nil when the tier has the feature enabled,
// otherwise an UpgradeRequiredError carrying the plan and feature name.
func RequireFeature(tier Tier, feature Feature) error {
	if FeatureEnabled(tier, feature) {
		return nil
	}
	return &UpgradeRequiredError{Plan: tier, Feature: feature}
}

func intPtr(v int) *int { return &v }
