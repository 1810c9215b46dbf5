package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "5m" or "90s" parse.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Detector DetectorConfig `yaml:"detector"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type StorageConfig struct {
	// DataDir holds the JSON documents backing the record store.
	DataDir string `yaml:"data_dir"`
	// UploadsDir holds original and annotated video artifacts.
	UploadsDir string `yaml:"uploads_dir"`
	// PhotosDir holds registry photos, addressed by NID.
	PhotosDir string `yaml:"photos_dir"`
}

func (s StorageConfig) FootageFile() string {
	return filepath.Join(s.DataDir, "data.json")
}

func (s StorageConfig) IdentityFile() string {
	return filepath.Join(s.DataDir, "nid-bank.json")
}

type DetectorConfig struct {
	// Binary is the external detector executable.
	Binary string `yaml:"binary"`
	// FacesDir is passed to the detector as its reference-photo directory.
	FacesDir string `yaml:"faces_dir"`
	// OutputSuffix is appended to the footage id to name the annotated file.
	OutputSuffix string `yaml:"output_suffix"`
	// MetadataSuffix replaces the output extension to locate the metadata file.
	MetadataSuffix string   `yaml:"metadata_suffix"`
	Workers        int      `yaml:"workers"`
	Timeout        Duration `yaml:"timeout"`
	LogLevel       string   `yaml:"log_level"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Storage.UploadsDir == "" {
		cfg.Storage.UploadsDir = "uploads"
	}
	if cfg.Storage.PhotosDir == "" {
		cfg.Storage.PhotosDir = "photos"
	}
	if cfg.Detector.Binary == "" {
		cfg.Detector.Binary = "detector"
	}
	if cfg.Detector.FacesDir == "" {
		cfg.Detector.FacesDir = "faces"
	}
	if cfg.Detector.OutputSuffix == "" {
		cfg.Detector.OutputSuffix = "_annotated.mp4"
	}
	if cfg.Detector.MetadataSuffix == "" {
		cfg.Detector.MetadataSuffix = "_metadata.json"
	}
	if cfg.Detector.Workers == 0 {
		cfg.Detector.Workers = 2
	}
	if cfg.Detector.Timeout == 0 {
		cfg.Detector.Timeout = Duration(30 * time.Minute)
	}
	if cfg.Detector.LogLevel == "" {
		cfg.Detector.LogLevel = "INFO"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VIGIL_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VIGIL_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("VIGIL_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("VIGIL_UPLOADS_DIR"); v != "" {
		cfg.Storage.UploadsDir = v
	}
	if v := os.Getenv("VIGIL_PHOTOS_DIR"); v != "" {
		cfg.Storage.PhotosDir = v
	}
	if v := os.Getenv("VIGIL_DETECTOR_BINARY"); v != "" {
		cfg.Detector.Binary = v
	}
	if v := os.Getenv("VIGIL_DETECTOR_FACES_DIR"); v != "" {
		cfg.Detector.FacesDir = v
	}
	if v := os.Getenv("VIGIL_DETECTOR_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Detector.Workers = n
		}
	}
	if v := os.Getenv("VIGIL_DETECTOR_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Detector.Timeout = Duration(d)
		}
	}
}
