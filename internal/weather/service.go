package weather

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmccart/watchface1/internal/message"
)

// Service fetches the current weather and encodes it for the device.
type Service struct {
	provider Provider
	logger   *slog.Logger
}

// NewService creates a new Service.
func NewService(provider Provider, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		logger:   logger,
	}
}

// Fetch performs one upstream request for the given coordinates and
// returns the encoded message. Errors wrap the provider's sentinels.
func (s *Service) Fetch(ctx context.Context, at Coordinates) (message.Message, error) {
	if s.provider == nil {
		return message.Message{}, fmt.Errorf("no weather provider configured")
	}

	s.logger.Debug("fetching current weather", "provider", s.provider.Name(), "coords", at.String())

	sample, err := s.provider.Current(ctx, at)
	if err != nil {
		return message.Message{}, fmt.Errorf("provider %s: %w", s.provider.Name(), err)
	}

	m := Encode(sample)
	s.logger.Debug("encoded weather sample",
		"place", sample.PlaceName,
		"icon", sample.Icon,
		"condition", sample.ConditionText,
		"condition_id", sample.ConditionID,
		"sky", SkyCondition(*m.SkyCond).String(),
	)
	return m, nil
}
