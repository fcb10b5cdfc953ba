package mapsurface

import (
	"testing"

	"profilemap/config"
	domainerrors "profilemap/internal/domain/errors"
	"profilemap/internal/domain/service"
	"profilemap/internal/errors"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_NewSurface(t *testing.T) {
	tests := []struct {
		name    string
		mapCfg  *config.MapConfig
		wantErr bool
		wantURL string
		wantKey string
	}{
		{
			name:    "leaflet with tiles",
			mapCfg:  &config.MapConfig{Provider: "leaflet", TileURL: "https://tiles/{z}/{x}/{y}.png"},
			wantURL: "https://tiles/{z}/{x}/{y}.png",
		},
		{
			name:    "leaflet without tiles",
			mapCfg:  &config.MapConfig{Provider: "leaflet"},
			wantErr: true,
		},
		{
			name:    "google with key",
			mapCfg:  &config.MapConfig{Provider: "Google", APIKey: "k"},
			wantKey: "k",
		},
		{
			name:    "google without key",
			mapCfg:  &config.MapConfig{Provider: "google", APIKey: "  "},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			mapCfg:  &config.MapConfig{Provider: "bing"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(&config.Config{Map: tt.mapCfg})
			surface, err := p.NewSurface(orb.Point{0, 20}, 2)

			if tt.wantErr {
				assert.Nil(t, surface)
				assert.True(t, errors.Is(err, domainerrors.ErrMapProviderUnavailable))

				return
			}

			require.NoError(t, err)
			opts := surface.ClientOptions()
			assert.Equal(t, p.Name(), opts.Provider)
			assert.Equal(t, tt.wantURL, opts.TileURL)
			assert.Equal(t, tt.wantKey, opts.APIKey)
			assert.Equal(t, orb.Point{0, 20}, surface.Center())
			assert.Equal(t, 2, surface.Zoom())
		})
	}
}

func newTestSurface(t *testing.T) *markerSurface {
	t.Helper()

	return newMarkerSurface(service.MapClientOptions{Provider: config.MapProviderLeaflet}, orb.Point{0, 20}, 2)
}

func TestMarkerSurface_AddRemove(t *testing.T) {
	s := newTestSurface(t)

	a := s.AddMarker("1", orb.Point{-74.006, 40.7128})
	b := s.AddMarker("2", orb.Point{-0.1278, 51.5074})
	c := s.AddMarker("3", orb.Point{-3.7038, 40.4168})
	require.Len(t, s.Markers(), 3)
	assert.NotEqual(t, a.ID, b.ID)

	assert.True(t, s.RemoveMarker(b.ID))
	assert.False(t, s.RemoveMarker(b.ID))

	live := s.Markers()
	require.Len(t, live, 2)
	assert.Equal(t, a.ID, live[0].ID)
	assert.Equal(t, c.ID, live[1].ID)

	got, ok := s.Marker(c.ID)
	require.True(t, ok)
	assert.Equal(t, "3", got.ProfileID)

	s.Close()
	assert.Empty(t, s.Markers())
	_, ok = s.Marker(a.ID)
	assert.False(t, ok)
}

func TestMarkerSurface_PanKeepsZoom(t *testing.T) {
	s := newTestSurface(t)

	s.PanTo(orb.Point{-0.1278, 51.5074})

	assert.Equal(t, orb.Point{-0.1278, 51.5074}, s.Center())
	assert.Equal(t, 2, s.Zoom())
}
