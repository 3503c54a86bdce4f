package location

import "context"

// StaticProvider always reports the same fix. Used in dev mode when no
// device location agent is configured.
type StaticProvider struct {
	Coords Coordinates
}

func (sp *StaticProvider) Current(ctx context.Context, opts Options) (*Coordinates, error) {
	coords := sp.Coords
	return &coords, nil
}
