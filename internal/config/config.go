package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"presidentielle/internal/models"
	"presidentielle/internal/storage"
)

// Config holds the dashboard configuration. It is loaded once and
// passed explicitly; nothing reads it through globals.
type Config struct {
	// Directory holding the bundled tables and boundary files
	DataDir string `yaml:"data_dir"`

	// Character set of the tables: utf-8, windows-1252, iso-8859-1, iso-8859-15
	Encoding string `yaml:"encoding"`

	Geographies []Geography `yaml:"geographies"`

	Presentation PresentationConfig `yaml:"presentation"`

	// Dropdown labels; derived from the candidate tables when empty
	Candidates []string `yaml:"candidates"`

	Server ServerConfig `yaml:"server"`

	Logging LoggingConfig `yaml:"logging"`
}

// Geography lists the files of one round at one level
type Geography struct {
	Round      int          `yaml:"round"`
	Level      models.Level `yaml:"level"`
	ID         string       `yaml:"id"`
	Stats      string       `yaml:"stats"`
	Candidates string       `yaml:"candidates"`
	Geo        string       `yaml:"geo"`
}

// PresentationConfig configures the values handed to the chart library
type PresentationConfig struct {
	Projection           string            `yaml:"projection"`
	FitBounds            bool              `yaml:"fit_bounds"`
	FeatureIDKey         string            `yaml:"feature_id_key"`
	StatsColorScale      string            `yaml:"stats_color_scale"`
	CandidatesColorScale string            `yaml:"candidates_color_scale"`
	CandidateColors      map[string]string `yaml:"candidate_colors"`
}

// ServerConfig configures the PocketBase host
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// PocketBase working directory; no election data is written there
	DataDir string `yaml:"data_dir"`
}

// LoggingConfig configures zap
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	Encoding    string `yaml:"encoding"` // json or console
}

var departmentFiles = Geography{
	Level:      models.LevelDepartment,
	ID:         models.ColDepartmentLabel,
	Stats:      "resultats-par-dpt-france-entiere.csv",
	Candidates: "resultats-par-dpt-candidats.csv",
	Geo:        "departements_france.geojson",
}

var regionFiles = Geography{
	Level:      models.LevelRegion,
	ID:         models.ColRegionLabel,
	Stats:      "resultats-par-reg-france-entiere.csv",
	Candidates: "resultats-par-reg-candidats.csv",
	Geo:        "regions_france.geojson",
}

var nationFiles = Geography{
	Level:      models.LevelNation,
	Stats:      "resultats-france-entiere.csv",
	Candidates: "resultats-france-candidats.csv",
}

func inRound(round int, dir string, g Geography) Geography {
	g.Round = round
	if dir != "" {
		g.Stats = filepath.ToSlash(filepath.Join(dir, g.Stats))
		g.Candidates = filepath.ToSlash(filepath.Join(dir, g.Candidates))
	}
	return g
}

// DefaultConfig returns the layout of the published 2022 data bundle:
// first round at the root of the data directory, second round under tour2/
func DefaultConfig() *Config {
	return &Config{
		DataDir:  "data",
		Encoding: "utf-8",
		Geographies: []Geography{
			inRound(1, "", nationFiles),
			inRound(1, "", regionFiles),
			inRound(1, "", departmentFiles),
			inRound(2, "tour2", nationFiles),
			inRound(2, "tour2", regionFiles),
			inRound(2, "tour2", departmentFiles),
		},
		Presentation: PresentationConfig{
			Projection:           "mercator",
			FitBounds:            true,
			FeatureIDKey:         storage.DefaultFeatureIDKey,
			StatsColorScale:      "Purples",
			CandidatesColorScale: "Blues",
			CandidateColors: map[string]string{
				"JADOT":     "#FFA15A",
				"LE PEN":    "#EF553B",
				"MACRON":    "#636EFA",
				"MÉLENCHON": "#00CC96",
				"PÉCRESSE":  "#19D3F3",
				"ZEMMOUR":   "#AB63FA",
			},
		},
		Server: ServerConfig{
			HTTPAddr: "0.0.0.0:8090",
			DataDir:  "./pb_data",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment variables override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("ELECTIONS_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if addr := os.Getenv("ELECTIONS_HTTP_ADDR"); addr != "" {
		c.Server.HTTPAddr = addr
	}
	if level := os.Getenv("ELECTIONS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks the geography table and presentation settings
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if len(c.Geographies) == 0 {
		return fmt.Errorf("at least one geography is required")
	}
	seen := make(map[string]bool)
	for _, s := range c.Sources() {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("geographies: %w", err)
		}
		key := fmt.Sprintf("%d/%s", s.Round, s.Level)
		if seen[key] {
			return fmt.Errorf("geographies: duplicate entry for round %d %s", s.Round, s.Level)
		}
		seen[key] = true
	}
	if c.Presentation.FeatureIDKey == "" {
		return fmt.Errorf("presentation.feature_id_key is required")
	}
	return nil
}

// Sources converts the geography table for the loader
func (c *Config) Sources() []models.Source {
	out := make([]models.Source, 0, len(c.Geographies))
	for _, g := range c.Geographies {
		out = append(out, models.Source{
			Round:      models.Round(g.Round),
			Level:      g.Level,
			IDColumn:   g.ID,
			Stats:      g.Stats,
			Candidates: g.Candidates,
			Geo:        g.Geo,
		})
	}
	return out
}
