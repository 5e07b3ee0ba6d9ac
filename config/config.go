// Package config provides configuration management for imgedit.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/dixieflatline76/imgedit/pkg/resample"
)

// Config holds the user settings read from config.toml.
type Config struct {
	IconSizes    []int   `toml:"icon_sizes"`
	UndoDepth    int     `toml:"undo_depth"`
	JPEGQuality  int     `toml:"jpeg_quality"`
	WebPQuality  float32 `toml:"webp_quality"`
	WebPLossless bool    `toml:"webp_lossless"`
	Resampler    string  `toml:"resampler"`
	MinCropSize  int     `toml:"min_crop_size"`
	Workers      int     `toml:"workers"`    // concurrent icon frames, 0 means one per CPU
	FaceModel    string  `toml:"face_model"` // pigo cascade file, enables face aware smart crop
}

var (
	instance *Config
	once     sync.Once
)

// GetConfig returns the singleton instance of Config.
func GetConfig() *Config {
	once.Do(func() {
		filename, err := GetFilename()
		if err == nil {
			instance, err = Load(filename)
		}
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(os.Stderr, "Error loading config:", err)
			}
			instance = Default()
		}
	})
	return instance
}

// Default returns a Config with every value set to its default.
func Default() *Config {
	c := &Config{}
	c.setDefaultValues()
	return c
}

// Load reads and validates the configuration file at path.
// Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	c := &Config{}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c.setDefaultValues()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	return c, nil
}

// setDefaultValues fills zero values with defaults.
func (c *Config) setDefaultValues() {
	if len(c.IconSizes) == 0 {
		c.IconSizes = slices.Clone(DefaultIconSizes)
	}
	if c.UndoDepth == 0 {
		c.UndoDepth = DefaultUndoDepth
	}
	if c.JPEGQuality == 0 {
		c.JPEGQuality = DefaultJPEGQuality
	}
	if c.WebPQuality == 0 {
		c.WebPQuality = DefaultWebPQuality
	}
	if c.Resampler == "" {
		c.Resampler = resample.DefaultName
	}
	if c.MinCropSize == 0 {
		c.MinCropSize = DefaultMinCropSize
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	for _, size := range c.IconSizes {
		if size < 1 || size > 256 {
			return fmt.Errorf("icon_sizes: %d out of range 1..256", size)
		}
	}
	if c.UndoDepth < 1 {
		return fmt.Errorf("undo_depth: must be positive, got %d", c.UndoDepth)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality: %d out of range 1..100", c.JPEGQuality)
	}
	if c.WebPQuality < 0 || c.WebPQuality > 100 {
		return fmt.Errorf("webp_quality: %v out of range 0..100", c.WebPQuality)
	}
	if _, err := resample.ByName(c.Resampler); err != nil {
		return fmt.Errorf("resampler: %w", err)
	}
	if c.MinCropSize < 1 {
		return fmt.Errorf("min_crop_size: must be positive, got %d", c.MinCropSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers: must not be negative, got %d", c.Workers)
	}
	return nil
}

// GetPath returns the path to the user's config directory
func GetPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home directory: %w", err)
	}
	return filepath.Join(homeDir, LogSubDir), nil
}

// GetFilename returns the path to the user's config file
func GetFilename() (string, error) {
	dir, err := GetPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// LogDir returns the directory release builds write their log file to.
func LogDir() (string, error) {
	if runtime.GOOS == "windows" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("getting user cache directory: %w", err)
		}
		return filepath.Join(cacheDir, LogWinSubDir), nil
	}
	return GetPath()
}

// Save saves the current configuration to the user's config file
func (c *Config) Save() error {
	filename, err := GetFilename()
	if err != nil {
		return err
	}
	return c.SaveTo(filename)
}

// SaveTo writes the configuration to path, creating its directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encoding config data: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
