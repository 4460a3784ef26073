package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFoldsUnknownToFree(t *testing.T) {
	assert.Equal(t, TierFree, Normalize(""))
	assert.Equal(t, TierFree, Normalize("platinum"))
	assert.Equal(t, TierFree, Normalize("FREE"))
	assert.Equal(t, TierPro, Normalize(" Pro "))
	assert.Equal(t, TierEnterprise, Normalize("enterprise"))
}

func TestLimitsForIsTotal(t *testing.T) {
	free := LimitsFor(TierFree)
	assert.NotNil(t, free.DailyMessages)
	assert.Equal(t, 20, *free.DailyMessages)
	assert.NotNil(t, free.DailyUploads)
	assert.Equal(t, 5, *free.DailyUploads)

	unknown := LimitsFor(Tier("bogus"))
	assert.Equal(t, free.DailyMessages, unknown.DailyMessages)

	enterprise := LimitsFor(TierEnterprise)
	assert.Nil(t, enterprise.DailyMessages)
	assert.Nil(t, enterprise.DailyUploads)
	assert.Nil(t, enterprise.Seats)
	assert.Nil(t, enterprise.AgencyBots)
}

func TestSummarizeThresholdGrowsWithTier(t *testing.T) {
	assert.Less(t, SummarizeThreshold(TierFree), SummarizeThreshold(TierStarter))
	assert.Less(t, SummarizeThreshold(TierStarter), SummarizeThreshold(TierPro))
	assert.Less(t, SummarizeThreshold(TierPro), SummarizeThreshold(TierEnterprise))
}

func TestRequireFeature(t *testing.T) {
	assert.NoError(t, RequireFeature(TierPro, FeatureExtraction))
	assert.NoError(t, RequireFeature(TierEnterprise, FeatureMultimedia))

	err := RequireFeature(TierFree, FeatureScheduling)
	assert.Error(t, err)

	var upgrade *UpgradeRequiredError
	assert.True(t, errors.As(err, &upgrade))
	assert.Equal(t, TierFree, upgrade.Plan)
	assert.Equal(t, FeatureScheduling, upgrade.Feature)
}
