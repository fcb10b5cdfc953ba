// Package entity contains the core business objects of the project.
package entity

import (
	"strings"

	"github.com/paulmach/orb"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"finite"`
	Longitude float64 `json:"longitude" validate:"finite"`
}

// Point returns the coordinates in orb's lon/lat order.
func (c Coordinates) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// CoordinatesFromPoint converts an orb point back to coordinates.
func CoordinatesFromPoint(p orb.Point) Coordinates {
	return Coordinates{Latitude: p.Lat(), Longitude: p.Lon()}
}

// Profile is a person shown in the list, on the map and in the detail view.
type Profile struct {
	ID          string      `json:"id"`          // Opaque identifier, immutable once assigned.
	Name        string      `json:"name"`        // Display name.
	Location    string      `json:"location"`    // Human-readable place, e.g. "London".
	Description string      `json:"description"` // Free text, searched together with Name.
	Photo       string      `json:"photo"`       // URL or data: URL.
	Coordinates Coordinates `json:"coordinates"` // Marker position.
}

// ProfileFields are the replaceable fields of a Profile. Field order is the
// validation order.
type ProfileFields struct {
	Name        string      `json:"name" validate:"notblank"`
	Location    string      `json:"location" validate:"notblank"`
	Description string      `json:"description" validate:"notblank"`
	Photo       string      `json:"photo"`
	Coordinates Coordinates `json:"coordinates"`
}

// NewProfile builds a profile from validated fields.
func NewProfile(id string, fields ProfileFields) *Profile {
	p := &Profile{ID: id}
	p.Apply(fields)

	return p
}

// Apply replaces every field except the id.
func (p *Profile) Apply(fields ProfileFields) {
	p.Name = fields.Name
	p.Location = fields.Location
	p.Description = fields.Description
	p.Photo = fields.Photo
	p.Coordinates = fields.Coordinates
}

// Fields returns the replaceable fields of p.
func (p *Profile) Fields() ProfileFields {
	return ProfileFields{
		Name:        p.Name,
		Location:    p.Location,
		Description: p.Description,
		Photo:       p.Photo,
		Coordinates: p.Coordinates,
	}
}

// Clone returns an independent copy.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p

	return &c
}

// Matches reports whether term is a case-insensitive substring of the name or
// the description. A blank term matches everything.
func (p *Profile) Matches(term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)

	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle)
}
