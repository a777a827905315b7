package weather

import (
	"context"
)

// Provider abstracts the upstream current-weather source.
type Provider interface {
	Name() string
	Current(ctx context.Context, at Coordinates) (Sample, error)
}
