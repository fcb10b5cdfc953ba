// Package mapsurface is the single map surface implementation. The provider
// (leaflet or google) is picked from configuration and only changes what a
// client needs to draw the surface and whether it can initialize.
package mapsurface

import (
	"strings"

	"profilemap/config"
	domainerrors "profilemap/internal/domain/errors"
	"profilemap/internal/domain/service"
	"profilemap/internal/errors"

	"github.com/paulmach/orb"
)

type provider struct {
	name    string
	apiKey  string
	tileURL string
}

// NewProvider returns the configured map provider. An unusable configuration
// does not fail here: NewSurface reports it so the views can degrade.
func NewProvider(cfg *config.Config) service.MapProvider {
	mapCfg := cfg.Map
	if mapCfg == nil {
		mapCfg = &config.MapConfig{Provider: config.MapProviderLeaflet}
	}

	return &provider{
		name:    strings.ToLower(strings.TrimSpace(mapCfg.Provider)),
		apiKey:  strings.TrimSpace(mapCfg.APIKey),
		tileURL: strings.TrimSpace(mapCfg.TileURL),
	}
}

func (p *provider) Name() string {
	return p.name
}

// NewSurface initializes a surface centered on center.
func (p *provider) NewSurface(center orb.Point, zoom int) (service.MapSurface, error) {
	opts := service.MapClientOptions{Provider: p.name}

	switch p.name {
	case config.MapProviderLeaflet:
		if p.tileURL == "" {
			return nil, errors.WithStack(domainerrors.ErrMapProviderUnavailable.WithDetails("leaflet provider needs a tile URL"))
		}
		opts.TileURL = p.tileURL
	case config.MapProviderGoogle:
		if p.apiKey == "" {
			return nil, errors.WithStack(domainerrors.ErrMapProviderUnavailable.WithDetails("google provider needs an API key"))
		}
		opts.APIKey = p.apiKey
	default:
		return nil, errors.WithStack(domainerrors.ErrMapProviderUnavailable.WithDetails("unknown map provider: " + p.name))
	}

	return newMarkerSurface(opts, center, zoom), nil
}
