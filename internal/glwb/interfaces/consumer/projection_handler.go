package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/wyfcoding/annuitypricing/internal/glwb/application"
	"github.com/wyfcoding/annuitypricing/internal/glwb/domain"
)

type ProjectionHandler struct {
	projector *application.GLWBProjectionService
	logger    *slog.Logger
}

func NewProjectionHandler(projector *application.GLWBProjectionService, logger *slog.Logger) *ProjectionHandler {
	return &ProjectionHandler{projector: projector, logger: logger}
}

func (h *ProjectionHandler) Handle(ctx context.Context, msg kafka.Message) error {
	switch msg.Topic {
	case domain.GLWBPricedEventType:
		var event domain.GLWBPricedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			h.logger.ErrorContext(ctx, "failed to unmarshal pricing event", "error", err)
			return err
		}
		return h.projector.ApplyPriced(ctx, event)
	case domain.FairFeeSolvedEventType:
		var event domain.FairFeeSolvedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			h.logger.ErrorContext(ctx, "failed to unmarshal fair fee event", "error", err)
			return err
		}
		return h.projector.ApplyFairFeeSolved(ctx, event)
	case domain.SensitivityCalculatedEventType:
		var event domain.SensitivityCalculatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			h.logger.ErrorContext(ctx, "failed to unmarshal sensitivity event", "error", err)
			return err
		}
		return h.projector.ApplySensitivity(ctx, event)
	case domain.PricingFailedEventType:
		var event domain.PricingFailedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			h.logger.ErrorContext(ctx, "failed to unmarshal pricing failed event", "error", err)
			return err
		}
		return h.projector.ApplyFailed(ctx, event)
	default:
		h.logger.WarnContext(ctx, "unknown valuation event topic", "topic", msg.Topic)
		return nil
	}
}
