// Package config holds the process-lifetime ambient settings navplan
// needs at startup: where to fetch and cache aviation data, and how
// verbosely to log. Grounded on mmp-vice's GlobalConfig (config.go):
// a JSON-encoded struct loaded from and saved to a file under the
// user's config directory. Per-request cruise parameters are not part
// of this type -- those live in service.PlanningOptions, since they
// change on every planning call rather than once per install.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Config is the full set of ambient settings read once at process
// startup.
type Config struct {
	NASRBaseURL      string `json:"nasr_base_url"`
	OurAirportsURL   string `json:"our_airports_url"`
	MORADataURL      string `json:"mora_data_url"`
	CachePath        string `json:"cache_path"`
	LogLevel         string `json:"log_level"`
	LogDir           string `json:"log_dir"`
	MagneticGridPath string `json:"magnetic_grid_path"`
}

// Default returns the built-in settings used when no config file is
// present, matching mmp-vice's pattern of falling back to sane
// defaults rather than refusing to start (config.go's GlobalConfig is
// always non-nil even before a saved file is loaded).
func Default() Config {
	return Config{
		NASRBaseURL:    "https://nfdc.faa.gov/webContent/28DaySub",
		OurAirportsURL: "https://davidmegginson.github.io/ourairports-data/airports.csv",
		MORADataURL:    "https://example.invalid/mora.csv",
		CachePath:      defaultCachePath(),
		LogLevel:       "info",
		LogDir:         "",
	}
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "navcore", "aviation.sqlite")
}

// Load reads a JSON config file at path, falling back to Default for
// any field the file omits (the same GlobalConfig JSON round trip
// mmp-vice's config.go does in Encode/Save, generalized to also
// tolerate a missing file on first run).
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	if err := decodeInto(f, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func decodeInto(r io.Reader, cfg *Config) error {
	overlay := *cfg
	if err := json.NewDecoder(r).Decode(&overlay); err != nil {
		return err
	}
	*cfg = overlay
	return nil
}

// Save writes cfg as indented JSON to path, creating parent directories
// as needed, matching mmp-vice's config.go Save().
func (c Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: mkdir %s: %w", dir, err)
		}
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
