package loader

import (
	"errors"
	"fmt"

	"github.com/aligator/fatboot"
	"github.com/aligator/fatboot/checkpoint"
	"github.com/aligator/fatboot/lz4"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid loader configuration")

// Compression selects when a loaded file is treated as a packed LZ4 payload.
type Compression string

const (
	// CompressionAuto unpacks files whose name ends in ".lz4".
	CompressionAuto   Compression = "auto"
	CompressionAlways Compression = "always"
	CompressionNever  Compression = "never"
)

// Config describes where the loader looks for the boot payload.
type Config struct {
	// Paths are the candidate file paths in priority order.
	// The first one existing on a volume is loaded.
	Paths []string `yaml:"paths"`

	// Devices are the block device indices to search, in order.
	// Defaults to device 0.
	Devices []uint32 `yaml:"devices"`

	// ScanPartitions enables probing the MBR partitions of a device which holds
	// no FAT volume itself.
	ScanPartitions bool `yaml:"scan_partitions"`

	// MaxSize limits the memory handed out for a single load, including the
	// packed and the unpacked copy. 0 means no limit.
	MaxSize int `yaml:"max_size"`

	Compressed Compression `yaml:"compressed"`

	// CompressionLevel is the HC level used when the CLI packs payloads.
	CompressionLevel int `yaml:"compression_level"`

	// CacheLines is the number of sectors kept by the block cache.
	CacheLines int `yaml:"cache_lines"`
}

// DefaultConfig returns the configuration used if no file is given.
func DefaultConfig() *Config {
	return &Config{
		Paths:            []string{`\EFI\BOOT\BOOTX64.EFI`},
		Devices:          []uint32{0},
		ScanPartitions:   true,
		Compressed:       CompressionAuto,
		CompressionLevel: lz4.DefaultLevel,
		CacheLines:       fatboot.DefaultCacheLines,
	}
}

// LoadConfig reads a YAML configuration from fs.
// Fields missing in the file keep their value from DefaultConfig.
func LoadConfig(fs afero.Fs, name string) (*Config, error) {
	data, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, checkpoint.From(err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, checkpoint.Wrapf(err, ErrInvalidConfig, "parsing %s", name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the loader cannot work with.
func (c *Config) Validate() error {
	if len(c.Paths) == 0 {
		return checkpoint.Wrap(ErrInvalidConfig, fmt.Errorf("no paths"))
	}
	if len(c.Devices) == 0 {
		return checkpoint.Wrap(ErrInvalidConfig, fmt.Errorf("no devices"))
	}
	if c.MaxSize < 0 {
		return checkpoint.Wrap(ErrInvalidConfig, fmt.Errorf("negative max_size %d", c.MaxSize))
	}
	if c.CacheLines < 0 {
		return checkpoint.Wrap(ErrInvalidConfig, fmt.Errorf("negative cache_lines %d", c.CacheLines))
	}
	if c.CompressionLevel > lz4.MaxLevel {
		return checkpoint.Wrap(ErrInvalidConfig, fmt.Errorf("compression_level %d above %d", c.CompressionLevel, lz4.MaxLevel))
	}

	switch c.Compressed {
	case CompressionAuto, CompressionAlways, CompressionNever:
	case "":
		c.Compressed = CompressionAuto
	default:
		return checkpoint.Wrap(ErrInvalidConfig, fmt.Errorf("unknown compressed mode %q", c.Compressed))
	}
	return nil
}
