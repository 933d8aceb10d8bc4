package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pausewise/pausewise/internal/cooldown"
	"github.com/pausewise/pausewise/internal/domain"
	"github.com/pausewise/pausewise/internal/engine"
	"github.com/pausewise/pausewise/internal/events"
	"github.com/pausewise/pausewise/internal/ledger"
	"github.com/pausewise/pausewise/internal/persistence/memory"
	"github.com/pausewise/pausewise/internal/stats"
	"github.com/pausewise/pausewise/internal/telemetry"
)

// capturePublisher records published events and optionally fails.
type capturePublisher struct {
	interventions []events.InterventionDetectedEvent
	savings       []events.SavingsConfirmedEvent
	failWith      error
}

func (p *capturePublisher) PublishInterventionDetected(_ context.Context, event events.InterventionDetectedEvent) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.interventions = append(p.interventions, event)
	return nil
}

func (p *capturePublisher) PublishSavingsConfirmed(_ context.Context, event events.SavingsConfirmedEvent) error {
	if p.failWith != nil {
		return p.failWith
	}
	p.savings = append(p.savings, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func newTestService(t *testing.T) (*Service, *capturePublisher) {
	t.Helper()

	store := memory.NewStore()
	publisher := &capturePublisher{}
	service := NewService(Options{
		Engine:      engine.New(engine.NewDefaultRegistry(engine.DefaultRuleConfig()), nil),
		Ledger:      ledger.NewService(store),
		Stats:       stats.NewAggregator(store),
		Publisher:   publisher,
		Cooldown:    cooldown.NewMemoryStore(),
		CooldownTTL: time.Hour,
		Metrics:     telemetry.NewMetricsRegistry(),
	})
	return service, publisher
}

func riskySnapshot(userID string) *domain.Snapshot {
	return &domain.Snapshot{
		UserID: userID,
		Mood:   3,
		Location: domain.Location{
			Lat: 40.7580,
			Lon: -73.9855,
		},
		Merchants: []domain.Merchant{
			{Name: "Maison Dorée", DistanceM: 150, PriceTier: domain.PriceLuxury},
		},
		CapturedAt: time.Now().UTC(),
	}
}

func TestEvaluateIntervention_PublishesOnce(t *testing.T) {
	service, publisher := newTestService(t)
	ctx := context.Background()

	results, err := service.EvaluateIntervention(ctx, riskySnapshot("u1"), domain.TierPremium)
	require.NoError(t, err)
	require.Len(t, results, 2, "mood and luxury rules both fire")

	require.Len(t, publisher.interventions, 1)
	event := publisher.interventions[0]
	assert.Equal(t, "u1", event.Data.UserID)
	assert.Equal(t, "premium", event.Data.Tier)
	assert.Equal(t, "high", event.Data.HighestRisk)
	assert.Len(t, event.Data.Results, 2)
}

func TestEvaluateIntervention_CooldownSuppressesRepeatEvents(t *testing.T) {
	service, publisher := newTestService(t)
	ctx := context.Background()

	first, err := service.EvaluateIntervention(ctx, riskySnapshot("u1"), domain.TierPremium)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := service.EvaluateIntervention(ctx, riskySnapshot("u1"), domain.TierPremium)
	require.NoError(t, err)
	assert.Len(t, second, 2, "cooldown never changes the API response")

	assert.Len(t, publisher.interventions, 1, "repeat hits stay quiet during the cooldown window")
}

func TestEvaluateIntervention_CooldownIsPerUser(t *testing.T) {
	service, publisher := newTestService(t)
	ctx := context.Background()

	_, err := service.EvaluateIntervention(ctx, riskySnapshot("u1"), domain.TierPremium)
	require.NoError(t, err)
	_, err = service.EvaluateIntervention(ctx, riskySnapshot("u2"), domain.TierPremium)
	require.NoError(t, err)

	assert.Len(t, publisher.interventions, 2)
}

func TestEvaluateIntervention_QuietSnapshotPublishesNothing(t *testing.T) {
	service, publisher := newTestService(t)

	snap := &domain.Snapshot{UserID: "u1", Mood: 8, CapturedAt: time.Now().UTC()}
	results, err := service.EvaluateIntervention(context.Background(), snap, domain.TierPremium)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, publisher.interventions)
}

func TestEvaluateIntervention_PublishFailureDoesNotFailRequest(t *testing.T) {
	service, publisher := newTestService(t)
	publisher.failWith = errors.New("kafka down")

	results, err := service.EvaluateIntervention(context.Background(), riskySnapshot("u1"), domain.TierPremium)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestEvaluateIntervention_InvalidSnapshot(t *testing.T) {
	service, publisher := newTestService(t)

	snap := riskySnapshot("u1")
	snap.Mood = 0
	_, err := service.EvaluateIntervention(context.Background(), snap, domain.TierPremium)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, publisher.interventions)
}

func TestRecordAndConfirmSavings(t *testing.T) {
	service, publisher := newTestService(t)
	ctx := context.Background()

	estimate, err := service.RecordSaving(ctx, ledger.NewEntry{
		UserID:      "u1",
		Amount:      80,
		Category:    domain.CategoryShopping,
		TriggerType: domain.TriggerMoodAlert,
	})
	require.NoError(t, err)

	confirmed, err := service.ConfirmSavings(ctx, ledger.ConfirmInput{
		UserID:             "u1",
		OriginalEstimateID: estimate.ID,
		OriginalAmount:     80,
		ActualAmount:       25,
		Reason:             "bought the cheaper one",
	})
	require.NoError(t, err)
	assert.InDelta(t, 25, confirmed.Amount, 1e-9)
	assert.InDelta(t, 55, confirmed.SavedAmount(), 1e-9)

	require.Len(t, publisher.savings, 1)
	event := publisher.savings[0]
	assert.Equal(t, confirmed.ID, event.Data.EntryID)
	assert.Equal(t, estimate.ID, event.Data.OriginalEstimateID)
	assert.InDelta(t, 80, event.Data.OriginalAmount, 1e-9)
	assert.InDelta(t, 25, event.Data.ActualAmount, 1e-9)
	assert.InDelta(t, 55, event.Data.SavedAmount, 1e-9)
}

func TestConfirmSavings_ErrorSkipsEvent(t *testing.T) {
	service, publisher := newTestService(t)

	_, err := service.ConfirmSavings(context.Background(), ledger.ConfirmInput{
		UserID:             "u1",
		OriginalEstimateID: "missing",
		OriginalAmount:     80,
		ActualAmount:       25,
	})
	require.Error(t, err)
	assert.Empty(t, publisher.savings)
}

func TestGetSavingsStatsAndHistory(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.RecordSaving(ctx, ledger.NewEntry{
		UserID:      "u1",
		Amount:      45,
		Category:    domain.CategoryShopping,
		TriggerType: domain.TriggerManual,
	})
	require.NoError(t, err)

	summary, err := service.GetSavingsStats(ctx, "u1", 7)
	require.NoError(t, err)
	assert.InDelta(t, 45, summary.TotalSaved, 1e-9)
	assert.Equal(t, 1, summary.InterventionCount)

	history, err := service.GetSavingsHistory(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)

	entry, err := service.GetSaving(ctx, "u1", history[0].ID)
	require.NoError(t, err)
	assert.Equal(t, history[0].ID, entry.ID)
}

func TestRules(t *testing.T) {
	service, _ := newTestService(t)

	rules := service.Rules()
	require.Len(t, rules, 5)
	assert.Equal(t, engine.RuleMoodSpending, rules[0].ID)
}

func TestHealthCheckDefaultsHealthy(t *testing.T) {
	service, _ := newTestService(t)

	health := service.HealthCheck(context.Background())
	assert.True(t, health.Healthy)
}
