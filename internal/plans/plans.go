package plans

// Metric names the usage counters a plan limits per billing period.
type Metric string

const (
	MetricCharacters       Metric = "characters"
	MetricDubbingSeconds   Metric = "dubbing_seconds"
	MetricSoundEffects     Metric = "sound_effects"
	MetricVoiceConversions Metric = "voice_conversions"
	MetricTranscriptions   Metric = "transcriptions"
)

// Limits holds the per-period maximums for one plan tier.
type Limits struct {
	Characters       int64 `json:"characters"`
	DubbingSeconds   int64 `json:"dubbing_seconds"`
	SoundEffects     int64 `json:"sound_effects"`
	VoiceConversions int64 `json:"voice_conversions"`
	Transcriptions   int64 `json:"transcriptions"`
	CustomVoices     int64 `json:"custom_voices"`
}

const (
	TierFree    = "free"
	TierStarter = "starter"
	TierCreator = "creator"
	TierPro     = "pro"
)

var tierLimits = map[string]Limits{
	TierFree:    {Characters: 10_000, DubbingSeconds: 150, SoundEffects: 10, VoiceConversions: 10, Transcriptions: 10, CustomVoices: 1},
	TierStarter: {Characters: 30_000, DubbingSeconds: 600, SoundEffects: 50, VoiceConversions: 50, Transcriptions: 60, CustomVoices: 5},
	TierCreator: {Characters: 100_000, DubbingSeconds: 2_400, SoundEffects: 300, VoiceConversions: 300, Transcriptions: 360, CustomVoices: 30},
	TierPro:     {Characters: 500_000, DubbingSeconds: 9_600, SoundEffects: 2_000, VoiceConversions: 2_000, Transcriptions: 2_000, CustomVoices: 160},
}

// RevenueCat product id prefixes mapped to tiers.
var productTiers = map[string]string{
	"audiomint_starter": TierStarter,
	"audiomint_creator": TierCreator,
	"audiomint_pro":     TierPro,
}

// ForTier returns the limits of a tier, defaulting to free for unknown tiers.
func ForTier(tier string) Limits {
	if l, ok := tierLimits[tier]; ok {
		return l
	}
	return tierLimits[TierFree]
}

// Limit returns the per-period maximum of one metric for a tier.
func (l Limits) Limit(m Metric) int64 {
	switch m {
	case MetricCharacters:
		return l.Characters
	case MetricDubbingSeconds:
		return l.DubbingSeconds
	case MetricSoundEffects:
		return l.SoundEffects
	case MetricVoiceConversions:
		return l.VoiceConversions
	case MetricTranscriptions:
		return l.Transcriptions
	default:
		return 0
	}
}

// TierForProduct maps a store product id to a plan tier. Product ids carry
// period suffixes (audiomint_pro_monthly, audiomint_pro_annual).
func TierForProduct(productID string) string {
	for prefix, tier := range productTiers {
		if len(productID) >= len(prefix) && productID[:len(prefix)] == prefix {
			return tier
		}
	}
	return TierFree
}
