package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/annuitypricing/internal/glwb/application"
	"github.com/wyfcoding/annuitypricing/internal/glwb/domain"
)

type memorySummaryRepo struct {
	summaries map[string]*domain.PolicySummary
}

func (r *memorySummaryRepo) Upsert(ctx context.Context, summary *domain.PolicySummary) error {
	copied := *summary
	r.summaries[summary.PolicyID] = &copied
	return nil
}

func (r *memorySummaryRepo) Get(ctx context.Context, policyID string) (*domain.PolicySummary, error) {
	summary, ok := r.summaries[policyID]
	if !ok {
		return nil, nil
	}
	copied := *summary
	return &copied, nil
}

func newHandler() (*ProjectionHandler, *memorySummaryRepo) {
	repo := &memorySummaryRepo{summaries: make(map[string]*domain.PolicySummary)}
	projector := application.NewGLWBProjectionService(repo, slog.Default())
	return NewProjectionHandler(projector, slog.Default()), repo
}

func message(t *testing.T, topic string, event any) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Topic: topic, Key: []byte("POL-001"), Value: payload}
}

func TestHandleDispatchesByTopic(t *testing.T) {
	handler, repo := newHandler()
	ctx := context.Background()

	require.NoError(t, handler.Handle(ctx, message(t, domain.GLWBPricedEventType, domain.GLWBPricedEvent{
		PolicyID: "POL-001", GuaranteeCost: 4200, CalculatedAt: 1000,
	})))
	require.NoError(t, handler.Handle(ctx, message(t, domain.FairFeeSolvedEventType, domain.FairFeeSolvedEvent{
		PolicyID: "POL-001", FairFee: 0.009, GuaranteeCost: 4150, CalculatedAt: 2000,
	})))
	require.NoError(t, handler.Handle(ctx, message(t, domain.SensitivityCalculatedEventType, domain.SensitivityCalculatedEvent{
		PolicyID: "POL-001", VolSensitivity: 52000, GuaranteeCost: 4100, CalculatedAt: 3000,
	})))
	require.NoError(t, handler.Handle(ctx, message(t, domain.PricingFailedEventType, domain.PricingFailedEvent{
		PolicyID: "POL-001", Reason: "boom",
	})))

	summary := repo.summaries["POL-001"]
	require.NotNil(t, summary)
	assert.Equal(t, 4100.0, summary.LatestGuaranteeCost)
	assert.Equal(t, 0.009, summary.LatestFairFee)
	assert.Equal(t, 52000.0, summary.VolSensitivity)
	assert.Equal(t, 1, summary.FailureCount)
	assert.Equal(t, "boom", summary.LastError)
}

func TestHandleRejectsMalformedPayload(t *testing.T) {
	handler, _ := newHandler()
	err := handler.Handle(context.Background(), kafka.Message{
		Topic: domain.GLWBPricedEventType,
		Value: []byte("{not json"),
	})
	require.Error(t, err)
}

func TestHandleIgnoresUnknownTopic(t *testing.T) {
	handler, repo := newHandler()
	err := handler.Handle(context.Background(), kafka.Message{Topic: "unrelated", Value: []byte("{}")})
	require.NoError(t, err)
	assert.Empty(t, repo.summaries)
}
