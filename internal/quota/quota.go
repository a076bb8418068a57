package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/audiomint/audiomint-backend/internal/analytics"
	"github.com/audiomint/audiomint-backend/internal/models"
	"github.com/audiomint/audiomint-backend/internal/pipeline"
	"github.com/audiomint/audiomint-backend/internal/plans"
)

// columns maps metrics to usage_periods columns. Keys double as a whitelist
// so a metric can never inject SQL.
var columns = map[plans.Metric]string{
	plans.MetricCharacters:       "characters_used",
	plans.MetricDubbingSeconds:   "dubbing_seconds_used",
	plans.MetricSoundEffects:     "sound_effects_used",
	plans.MetricVoiceConversions: "voice_conversions_used",
	plans.MetricTranscriptions:   "transcriptions_used",
}

// Gate enforces plan limits against the caller's current usage period.
type Gate struct {
	db     *gorm.DB
	events analytics.Emitter
}

func NewGate(db *gorm.DB, events analytics.Emitter) *Gate {
	return &Gate{db: db, events: events}
}

// PeriodBounds returns the current billing period (calendar month, UTC).
func PeriodBounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// CurrentPeriod loads or creates the caller's usage row for this period.
func (g *Gate) CurrentPeriod(ctx context.Context, userID uuid.UUID) (*models.UsagePeriod, error) {
	start, end := PeriodBounds(time.Now())

	var period models.UsagePeriod
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND period_start = ?", userID, start).
		First(&period).Error
	if err == nil {
		return &period, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	period = models.UsagePeriod{UserID: userID, PeriodStart: start, PeriodEnd: end}
	if err := g.db.WithContext(ctx).Create(&period).Error; err != nil {
		// A concurrent request may have created the row first.
		if ferr := g.db.WithContext(ctx).
			Where("user_id = ? AND period_start = ?", userID, start).
			First(&period).Error; ferr == nil {
			return &period, nil
		}
		return nil, err
	}
	return &period, nil
}

// Check rejects when prospective usage (current + cost) would exceed the
// caller's plan limit. Runs before any provider call so a rejected request
// incurs no cost. Emits exactly one limit_hit event per rejection.
func (g *Gate) Check(ctx context.Context, user *models.User, metric plans.Metric, cost int64) error {
	limit := plans.ForTier(user.PlanTier).Limit(metric)

	period, err := g.CurrentPeriod(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrUsageUpdate, err)
	}

	used := usedOf(period, metric)
	if used+cost > limit {
		g.events.Emit("limit_hit", user.ID, map[string]interface{}{
			"metric":    string(metric),
			"attempted": used + cost,
			"limit":     limit,
			"plan_tier": user.PlanTier,
		})
		return fmt.Errorf("%w: %s limit reached (%d of %d used)", pipeline.ErrQuotaExceeded, metric, used, limit)
	}
	return nil
}

// Debit consumes cost atomically: the increment only applies when the
// resulting value stays within the plan limit, so concurrent requests cannot
// race past the gate between Check and Debit.
func (g *Gate) Debit(ctx context.Context, user *models.User, metric plans.Metric, cost int64) error {
	col, ok := columns[metric]
	if !ok {
		return fmt.Errorf("%w: unknown metric %q", pipeline.ErrUsageUpdate, metric)
	}
	limit := plans.ForTier(user.PlanTier).Limit(metric)

	period, err := g.CurrentPeriod(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrUsageUpdate, err)
	}

	res := g.db.WithContext(ctx).Model(&models.UsagePeriod{}).
		Where("id = ? AND "+col+" + ? <= ?", period.ID, cost, limit).
		Update(col, gorm.Expr(col+" + ?", cost))
	if res.Error != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrUsageUpdate, res.Error)
	}
	if res.RowsAffected == 0 {
		g.events.Emit("limit_hit", user.ID, map[string]interface{}{
			"metric":    string(metric),
			"attempted": usedOf(period, metric) + cost,
			"limit":     limit,
			"plan_tier": user.PlanTier,
		})
		return fmt.Errorf("%w: %s limit reached", pipeline.ErrQuotaExceeded, metric)
	}
	return nil
}

func usedOf(p *models.UsagePeriod, metric plans.Metric) int64 {
	switch metric {
	case plans.MetricCharacters:
		return p.CharactersUsed
	case plans.MetricDubbingSeconds:
		return p.DubbingSecondsUsed
	case plans.MetricSoundEffects:
		return p.SoundEffectsUsed
	case plans.MetricVoiceConversions:
		return p.VoiceConversionsUsed
	case plans.MetricTranscriptions:
		return p.TranscriptionsUsed
	default:
		return 0
	}
}
