package impl

import (
	"profilemap/internal/domain/service"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// featureCollection renders markers as GeoJSON points for leaflet clients.
// The collection's bbox encloses every marker.
func featureCollection(markers []service.Marker, selectedProfileID string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		f := geojson.NewFeature(m.Position)
		f.ID = m.ID
		f.Properties["marker_id"] = m.ID
		f.Properties["profile_id"] = m.ProfileID
		f.Properties["selected"] = m.ProfileID != "" && m.ProfileID == selectedProfileID
		fc.Append(f)
	}

	if bound, ok := markerBounds(markers); ok {
		fc.BBox = geojson.NewBBox(bound)
	}

	return fc
}

func markerBounds(markers []service.Marker) (orb.Bound, bool) {
	if len(markers) == 0 {
		return orb.Bound{}, false
	}

	mp := make(orb.MultiPoint, 0, len(markers))
	for _, m := range markers {
		mp = append(mp, m.Position)
	}

	return mp.Bound(), true
}
