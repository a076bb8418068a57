package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForTierUnknownDefaultsToFree(t *testing.T) {
	assert.Equal(t, tierLimits[TierFree], ForTier("platinum"))
	assert.Equal(t, tierLimits[TierPro], ForTier(TierPro))
}

func TestLimitPerMetric(t *testing.T) {
	l := ForTier(TierStarter)
	assert.Equal(t, int64(30_000), l.Limit(MetricCharacters))
	assert.Equal(t, int64(600), l.Limit(MetricDubbingSeconds))
	assert.Equal(t, int64(50), l.Limit(MetricSoundEffects))
	assert.Equal(t, int64(50), l.Limit(MetricVoiceConversions))
	assert.Equal(t, int64(60), l.Limit(MetricTranscriptions))
	assert.Zero(t, l.Limit(Metric("nonsense")))
}

func TestTierForProduct(t *testing.T) {
	assert.Equal(t, TierStarter, TierForProduct("audiomint_starter_monthly"))
	assert.Equal(t, TierCreator, TierForProduct("audiomint_creator_annual"))
	assert.Equal(t, TierPro, TierForProduct("audiomint_pro_monthly"))
	assert.Equal(t, TierFree, TierForProduct("some_other_sku"))
}

func TestTiersAreOrdered(t *testing.T) {
	free, starter, creator, pro := ForTier(TierFree), ForTier(TierStarter), ForTier(TierCreator), ForTier(TierPro)
	assert.Less(t, free.Characters, starter.Characters)
	assert.Less(t, starter.Characters, creator.Characters)
	assert.Less(t, creator.Characters, pro.Characters)
	assert.Less(t, free.CustomVoices, pro.CustomVoices)
}
