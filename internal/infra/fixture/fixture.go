// Package fixture loads the seed profiles shared by every view.
package fixture

import (
	_ "embed"
	"log/slog"
	"os"

	"profilemap/config"
	"profilemap/internal/domain/entity"
	"profilemap/internal/errors"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"go.uber.org/fx"
)

//go:embed profiles.yaml
var embeddedProfiles []byte

// Seed is the initial profile collection handed to the store.
type Seed []*entity.Profile

type fixtureFile struct {
	Profiles []fixtureProfile `mapstructure:"profiles"`
}

type fixtureProfile struct {
	ID          string  `mapstructure:"id"`
	Name        string  `mapstructure:"name"`
	Location    string  `mapstructure:"location"`
	Description string  `mapstructure:"description"`
	Photo       string  `mapstructure:"photo"`
	Coordinates struct {
		Latitude  float64 `mapstructure:"latitude"`
		Longitude float64 `mapstructure:"longitude"`
	} `mapstructure:"coordinates"`
}

// Params defines the parameters required for loading fixtures
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// New loads the configured fixture file, or the embedded one when no path is set.
func New(params Params) (Seed, error) {
	raw := embeddedProfiles
	source := "embedded"

	if params.Config.Fixture != nil && params.Config.Fixture.Path != "" {
		b, err := os.ReadFile(params.Config.Fixture.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "read fixture %s", params.Config.Fixture.Path)
		}
		raw = b
		source = params.Config.Fixture.Path
	}

	seed, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	params.Logger.Info("Loaded seed profiles",
		slog.String("source", source),
		slog.Int("count", len(seed)),
	)

	return seed, nil
}

// Default returns the embedded seed profiles.
func Default() (Seed, error) {
	return Parse(embeddedProfiles)
}

// Parse decodes a YAML fixture document and validates every profile in it.
func Parse(raw []byte) (Seed, error) {
	doc, err := yaml.Parser().Unmarshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse fixture yaml")
	}

	var file fixtureFile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &file,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create fixture decoder")
	}
	if err := decoder.Decode(doc); err != nil {
		return nil, errors.Wrap(err, "decode fixture")
	}

	seen := make(map[string]struct{}, len(file.Profiles))
	seed := make(Seed, 0, len(file.Profiles))
	for i, fp := range file.Profiles {
		if fp.ID == "" {
			return nil, errors.Errorf("fixture profile %d has no id", i)
		}
		if _, dup := seen[fp.ID]; dup {
			return nil, errors.Errorf("fixture profile id %q is duplicated", fp.ID)
		}
		seen[fp.ID] = struct{}{}

		fields := entity.ProfileFields{
			Name:        fp.Name,
			Location:    fp.Location,
			Description: fp.Description,
			Photo:       fp.Photo,
			Coordinates: entity.Coordinates{
				Latitude:  fp.Coordinates.Latitude,
				Longitude: fp.Coordinates.Longitude,
			},
		}
		if err := fields.Validate(); err != nil {
			return nil, errors.Wrapf(err, "fixture profile %q", fp.ID)
		}

		seed = append(seed, entity.NewProfile(fp.ID, fields))
	}

	return seed, nil
}
