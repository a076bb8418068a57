package quota

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/audiomint/audiomint-backend/internal/models"
	"github.com/audiomint/audiomint-backend/internal/pipeline"
	"github.com/audiomint/audiomint-backend/internal/plans"
)

type recordingEmitter struct {
	events []string
	props  []map[string]interface{}
}

func (r *recordingEmitter) Emit(event string, _ uuid.UUID, props map[string]interface{}) {
	r.events = append(r.events, event)
	r.props = append(r.props, props)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.UsagePeriod{}))
	return db
}

func freeUser() *models.User {
	return &models.User{ID: uuid.New(), Subject: "sub-1", PlanTier: plans.TierFree}
}

func TestPeriodBoundsCalendarMonthUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	start, end := PeriodBounds(time.Date(2026, 8, 15, 3, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestCurrentPeriodGetOrCreate(t *testing.T) {
	db := openTestDB(t)
	gate := NewGate(db, &recordingEmitter{})
	user := freeUser()

	first, err := gate.CurrentPeriod(context.Background(), user.ID)
	require.NoError(t, err)

	second, err := gate.CurrentPeriod(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.PeriodStart, second.PeriodStart)

	var count int64
	require.NoError(t, db.Model(&models.UsagePeriod{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCheckAllowsWithinLimit(t *testing.T) {
	db := openTestDB(t)
	events := &recordingEmitter{}
	gate := NewGate(db, events)
	user := freeUser()

	require.NoError(t, gate.Check(context.Background(), user, plans.MetricCharacters, 500))
	assert.Empty(t, events.events)
}

func TestCheckRejectsProspectiveOverrun(t *testing.T) {
	db := openTestDB(t)
	events := &recordingEmitter{}
	gate := NewGate(db, events)
	user := freeUser()

	period, err := gate.CurrentPeriod(context.Background(), user.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(period).Update("characters_used", 9_995).Error)

	err = gate.Check(context.Background(), user, plans.MetricCharacters, 10)
	require.ErrorIs(t, err, pipeline.ErrQuotaExceeded)

	// Exactly one limit_hit, carrying the metric and plan context.
	require.Len(t, events.events, 1)
	assert.Equal(t, "limit_hit", events.events[0])
	assert.Equal(t, "characters", events.props[0]["metric"])
	assert.Equal(t, plans.TierFree, events.props[0]["plan_tier"])

	// Counter untouched by a rejected request.
	var reloaded models.UsagePeriod
	require.NoError(t, db.First(&reloaded, "user_id = ?", user.ID).Error)
	assert.Equal(t, int64(9_995), reloaded.CharactersUsed)
}

func TestCheckExactLimitAllowed(t *testing.T) {
	db := openTestDB(t)
	gate := NewGate(db, &recordingEmitter{})
	user := freeUser()

	period, err := gate.CurrentPeriod(context.Background(), user.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(period).Update("characters_used", 9_000).Error)

	// used + cost == limit is still within the plan.
	require.NoError(t, gate.Check(context.Background(), user, plans.MetricCharacters, 1_000))
}

func TestDebitIncrementsCounter(t *testing.T) {
	db := openTestDB(t)
	gate := NewGate(db, &recordingEmitter{})
	user := freeUser()

	require.NoError(t, gate.Debit(context.Background(), user, plans.MetricSoundEffects, 1))
	require.NoError(t, gate.Debit(context.Background(), user, plans.MetricSoundEffects, 1))

	var period models.UsagePeriod
	require.NoError(t, db.First(&period, "user_id = ?", user.ID).Error)
	assert.Equal(t, int64(2), period.SoundEffectsUsed)
}

func TestDebitRefusesOverrun(t *testing.T) {
	db := openTestDB(t)
	events := &recordingEmitter{}
	gate := NewGate(db, events)
	user := freeUser()

	period, err := gate.CurrentPeriod(context.Background(), user.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(period).Update("characters_used", 9_900).Error)

	// The conditional update sees the current value, not the one Check saw,
	// so a racing request that would push past the limit is refused here.
	err = gate.Debit(context.Background(), user, plans.MetricCharacters, 200)
	require.ErrorIs(t, err, pipeline.ErrQuotaExceeded)
	assert.Equal(t, []string{"limit_hit"}, events.events)

	var reloaded models.UsagePeriod
	require.NoError(t, db.First(&reloaded, "user_id = ?", user.ID).Error)
	assert.Equal(t, int64(9_900), reloaded.CharactersUsed)
}

func TestDebitUnknownMetric(t *testing.T) {
	db := openTestDB(t)
	gate := NewGate(db, &recordingEmitter{})

	err := gate.Debit(context.Background(), freeUser(), plans.Metric("nonsense"), 1)
	require.ErrorIs(t, err, pipeline.ErrUsageUpdate)
}
