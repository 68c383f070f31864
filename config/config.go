package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/moffa90/go-bioharness/downloader"
	"github.com/moffa90/go-bioharness/transport"
)

// SerialConfig configures serial port links.
type SerialConfig struct {
	BaudRate      int `toml:"baud_rate"`
	ReadTimeoutMS int `toml:"read_timeout_ms"`
}

// USBConfig configures native USB links.
type USBConfig struct {
	VendorID         int `toml:"vendor_id"`
	TimeoutMS        int `toml:"timeout_ms"`
	OpenRetryDelayMS int `toml:"open_retry_delay_ms"`
	BannerWaitMS     int `toml:"banner_wait_ms"`
	BannerMaxBytes   int `toml:"banner_max_bytes"`
}

// ProtocolConfig holds frame timing and retry limits.
type ProtocolConfig struct {
	FrameTimeoutMS int `toml:"frame_timeout_ms"`
	BadDataRetries int `toml:"bad_data_retries"`
	ReadRetries    int `toml:"read_retries"`
}

// LogConfig selects the log level and output style.
type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// ExportConfig controls where and how sessions are exported.
type ExportConfig struct {
	Dir string `toml:"dir"`

	// TimeZone is an IANA zone name for session timestamps; empty means UTC
	TimeZone string `toml:"time_zone"`
}

// Config is the whole configuration file.
type Config struct {
	Serial   SerialConfig   `toml:"serial"`
	USB      USBConfig      `toml:"usb"`
	Protocol ProtocolConfig `toml:"protocol"`
	Log      LogConfig      `toml:"log"`
	Export   ExportConfig   `toml:"export"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Serial: SerialConfig{
			BaudRate:      115200,
			ReadTimeoutMS: 2000,
		},
		USB: USBConfig{
			VendorID:         transport.ZephyrVendorID,
			TimeoutMS:        2000,
			OpenRetryDelayMS: 1500,
			BannerWaitMS:     400,
			BannerMaxBytes:   128,
		},
		Protocol: ProtocolConfig{
			FrameTimeoutMS: 2000,
			BadDataRetries: 10,
			ReadRetries:    1,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
		Export: ExportConfig{
			Dir: ".",
		},
	}
}

// DefaultPath returns the per-user configuration file path.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()

	if homeDir == "" {
		return filepath.Join(".bhlog", "config.toml")
	}

	return filepath.Join(homeDir, ".bhlog", "config.toml")
}

// Load reads the configuration at path over the defaults.
func Load(path string) (Config, error) {
	config := Default()

	configData, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	if err := toml.Unmarshal(configData, &config); err != nil {
		return config, fmt.Errorf("parse %s: %w", path, err)
	}

	return config, config.normalize()
}

// LoadOrCreate reads the configuration at path, writing the defaults there
// first if the file does not exist.
func LoadOrCreate(path string) (Config, error) {
	config := Default()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return config, err
			}

			configData, err := toml.Marshal(config)
			if err != nil {
				return config, err
			}

			if err := os.WriteFile(path, configData, 0o644); err != nil {
				return config, err
			}

			return config, nil
		}

		return config, err
	}

	return Load(path)
}

func (c *Config) normalize() error {
	def := Default()

	c.Export.Dir = expandPath(strings.TrimSpace(c.Export.Dir))
	c.Export.TimeZone = strings.TrimSpace(c.Export.TimeZone)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))

	if c.Export.Dir == "" {
		c.Export.Dir = def.Export.Dir
	}
	if c.Serial.BaudRate <= 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Protocol.BadDataRetries <= 0 {
		c.Protocol.BadDataRetries = def.Protocol.BadDataRetries
	}

	var errs []error
	if c.USB.VendorID < 0 || c.USB.VendorID > 0xFFFF {
		errs = append(errs, fmt.Errorf("usb.vendor_id 0x%X out of range", c.USB.VendorID))
	}
	if c.Protocol.ReadRetries < 0 {
		errs = append(errs, errors.New("protocol.read_retries must not be negative"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location returns the time zone of session timestamps.
func (c Config) Location() (*time.Location, error) {
	if c.Export.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Export.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("export.time_zone: %w", err)
	}
	return loc, nil
}

// TransportOptions returns the transport settings as options for transport.Open.
func (c Config) TransportOptions() []transport.Option {
	return []transport.Option{
		transport.WithBaudRate(c.Serial.BaudRate),
		transport.WithReadTimeout(ms(c.Serial.ReadTimeoutMS)),
		transport.WithUSBTimeout(ms(c.USB.TimeoutMS)),
		transport.WithVendorID(uint16(c.USB.VendorID)),
		transport.WithOpenRetryDelay(ms(c.USB.OpenRetryDelayMS)),
		transport.WithBanner(ms(c.USB.BannerWaitMS), c.USB.BannerMaxBytes),
	}
}

// DownloaderOptions returns the protocol settings as downloader options.
func (c Config) DownloaderOptions() []downloader.Option {
	opts := []downloader.Option{
		downloader.WithFrameTimeout(ms(c.Protocol.FrameTimeoutMS)),
		downloader.WithBadDataRetries(c.Protocol.BadDataRetries),
		downloader.WithReadRetries(c.Protocol.ReadRetries),
		downloader.WithTransportOptions(c.TransportOptions()...),
	}
	if loc, err := c.Location(); err == nil {
		opts = append(opts, downloader.WithLocation(loc))
	}
	return opts
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		homeDir, _ := os.UserHomeDir()

		if homeDir != "" {
			trimmed := strings.TrimPrefix(path, "~")
			trimmed = strings.TrimPrefix(trimmed, string(os.PathSeparator))

			return filepath.Join(homeDir, trimmed)
		}
	}

	return path
}
