package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "4MB"

	// MapProviderLeaflet renders markers on a raster/vector tile layer.
	MapProviderLeaflet = "leaflet"
	// MapProviderGoogle renders markers through the Google Maps JavaScript API.
	MapProviderGoogle = "google"

	defaultTileURL      = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	defaultDefaultPhoto = "https://randomuser.me/api/portraits/lego/1.jpg"
	defaultMaxPhotoSize = 2 << 20
	defaultSessionTTL   = 30 * time.Minute
	defaultDetailZoom   = 13
	defaultMapZoom      = 2
	defaultCenterLat    = 20
	defaultSweepEvery   = time.Minute
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	// Map configures the map surface shared by the map and detail views
	Map *MapConfig `json:"map" yaml:"map"`

	// Form configures admin form sessions
	Form *FormConfig `json:"form" yaml:"form"`

	// Detail configures detail view resolution
	Detail *DetailConfig `json:"detail" yaml:"detail"`

	// Fixture points at an optional seed file replacing the embedded fixtures
	Fixture *FixtureConfig `json:"fixture" yaml:"fixture"`

	// QRCode configuration for profile share codes
	QRCode *QRCodeConfig `json:"qrcode" yaml:"qrcode"`

	// Tiles configuration for the PMTiles tile proxy
	Tiles *TilesConfig `json:"tiles" yaml:"tiles"`

	// Worker configures the in-process background worker
	Worker *WorkerConfig `json:"worker" yaml:"worker"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// MapConfig selects the map provider and the initial viewport.
type MapConfig struct {
	// Provider is either "leaflet" or "google"
	Provider string `json:"provider" yaml:"provider"`

	// APIKey is required by the google provider
	APIKey string `json:"apiKey" yaml:"apiKey"`

	// TileURL is the tile layer template used by the leaflet provider
	TileURL string `json:"tileUrl" yaml:"tileUrl"`

	CenterLatitude  float64 `json:"centerLatitude" yaml:"centerLatitude"`
	CenterLongitude float64 `json:"centerLongitude" yaml:"centerLongitude"`
	Zoom            int     `json:"zoom" yaml:"zoom"`
	DetailZoom      int     `json:"detailZoom" yaml:"detailZoom"`

	// SessionTTL evicts map sessions nobody touched for this long
	SessionTTL time.Duration `json:"sessionTtl" yaml:"sessionTtl"`
}

// FormConfig defines admin form behaviour
type FormConfig struct {
	DefaultPhoto  string        `json:"defaultPhoto" yaml:"defaultPhoto"`
	MaxPhotoBytes int64         `json:"maxPhotoBytes" yaml:"maxPhotoBytes"`
	SessionTTL    time.Duration `json:"sessionTtl" yaml:"sessionTtl"`
}

// DetailConfig defines detail view resolution
type DetailConfig struct {
	// FetchDelay simulates backend latency of the profile fetch collaborator
	FetchDelay time.Duration `json:"fetchDelay" yaml:"fetchDelay"`
}

// FixtureConfig defines where seed profiles come from
type FixtureConfig struct {
	Path string `json:"path" yaml:"path"`
}

// QRCodeConfig defines QR code generation configuration
type QRCodeConfig struct {
	Size                 int    `json:"size" yaml:"size"`
	ErrorCorrectionLevel string `json:"errorCorrectionLevel" yaml:"errorCorrectionLevel"`
	BaseURL              string `json:"baseUrl" yaml:"baseUrl"`
}

// TilesConfig defines the PMTiles archive served to leaflet clients
type TilesConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Source is a local path, file:// URL or HTTP URL of a .pmtiles archive
	Source string `json:"source" yaml:"source"`

	// CacheSize is the number of directories kept in memory by the PMTiles server
	CacheSize int `json:"cacheSize" yaml:"cacheSize"`
}

// WorkerConfig defines background housekeeping
type WorkerConfig struct {
	// SweepInterval is how often idle form and map sessions are evicted
	SweepInterval time.Duration `json:"sweepInterval" yaml:"sweepInterval"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: MAP_APIKEY -> map.apiKey (not map.apikey)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// Defaults returns a configuration carrying only default values.
func Defaults() *Config {
	cfg := new(Config)
	cfg.HTTP.Port = 8080
	applyDefaults(cfg)

	return cfg
}

// applyDefaults fills in every optional section so consumers never see nil.
func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if cfg.Map == nil {
		cfg.Map = &MapConfig{CenterLatitude: defaultCenterLat}
	}
	if cfg.Map.Provider == "" {
		cfg.Map.Provider = MapProviderLeaflet
	}
	if cfg.Map.Provider == MapProviderLeaflet && cfg.Map.TileURL == "" {
		cfg.Map.TileURL = defaultTileURL
	}
	if cfg.Map.Zoom == 0 {
		cfg.Map.Zoom = defaultMapZoom
	}
	if cfg.Map.DetailZoom == 0 {
		cfg.Map.DetailZoom = defaultDetailZoom
	}
	if cfg.Map.SessionTTL == 0 {
		cfg.Map.SessionTTL = defaultSessionTTL
	}

	if cfg.Form == nil {
		cfg.Form = &FormConfig{}
	}
	if cfg.Form.DefaultPhoto == "" {
		cfg.Form.DefaultPhoto = defaultDefaultPhoto
	}
	if cfg.Form.MaxPhotoBytes <= 0 {
		cfg.Form.MaxPhotoBytes = defaultMaxPhotoSize
	}
	if cfg.Form.SessionTTL == 0 {
		cfg.Form.SessionTTL = defaultSessionTTL
	}

	if cfg.Detail == nil {
		cfg.Detail = &DetailConfig{}
	}
	if cfg.Fixture == nil {
		cfg.Fixture = &FixtureConfig{}
	}

	if cfg.Worker == nil {
		cfg.Worker = &WorkerConfig{}
	}
	if cfg.Worker.SweepInterval == 0 {
		cfg.Worker.SweepInterval = defaultSweepEvery
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
