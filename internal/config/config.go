package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Render  RenderConfig  `mapstructure:"render"`
	Export  ExportConfig  `mapstructure:"export"`
	Share   ShareConfig   `mapstructure:"share"`
	UI      UIConfig      `mapstructure:"ui"`
	Log     LogConfig     `mapstructure:"log"`
}

// StorageConfig selects where the gallery is persisted.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // sqlite | file
	Driver  string `mapstructure:"driver"`  // sqlite3 (cgo) | sqlite (pure Go)
	Path    string `mapstructure:"path"`
	File    string `mapstructure:"file"`
	Key     string `mapstructure:"key"`
}

// RenderConfig controls how a draft is flattened.
type RenderConfig struct {
	Width        int     `mapstructure:"width"`
	FontSize     float64 `mapstructure:"font_size"`
	OffsetX      int     `mapstructure:"offset_x"`
	OffsetY      int     `mapstructure:"offset_y"`
	TextColor    string  `mapstructure:"text_color"`
	ShadowColor  string  `mapstructure:"shadow_color"`
	ShadowOffset int     `mapstructure:"shadow_offset"`
	ShadowBlur   int     `mapstructure:"shadow_blur"`
}

// ExportConfig holds download settings.
type ExportConfig struct {
	Dir      string `mapstructure:"dir"`
	Filename string `mapstructure:"filename"`
}

// ShareConfig holds share navigation settings.
type ShareConfig struct {
	OpenBrowser bool          `mapstructure:"open_browser"`
	Publish     PublishConfig `mapstructure:"publish"`
}

// PublishConfig points at an S3-compatible bucket used to host shared memes.
type PublishConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	Region        string        `mapstructure:"region"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
	LinkTTL       time.Duration `mapstructure:"link_ttl"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	ImagesDir    string `mapstructure:"images_dir"`
	PreviewWidth int    `mapstructure:"preview_width"`
}

// LogConfig holds the log file location. The terminal belongs to the TUI.
type LogConfig struct {
	File string `mapstructure:"file"`
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "jaskmeme")
}

// Path is where Save writes and Load looks first.
func Path() string {
	if p := os.Getenv("JASKMEME_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "jaskmeme", "config.toml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.driver", "sqlite3")
	v.SetDefault("storage.path", filepath.Join(dataDir(), "jaskmeme.db"))
	v.SetDefault("storage.file", filepath.Join(dataDir(), "memes.json"))
	v.SetDefault("storage.key", "memes")

	v.SetDefault("render.width", 300)
	v.SetDefault("render.font_size", 24.0)
	v.SetDefault("render.offset_x", 10)
	v.SetDefault("render.offset_y", 10)
	v.SetDefault("render.text_color", "#000000")
	v.SetDefault("render.shadow_color", "#000000")
	v.SetDefault("render.shadow_offset", 2)
	v.SetDefault("render.shadow_blur", 4)

	v.SetDefault("export.dir", filepath.Join(os.Getenv("HOME"), "Downloads"))
	v.SetDefault("export.filename", "meme.png")

	v.SetDefault("share.open_browser", true)
	v.SetDefault("share.publish.enabled", false)
	v.SetDefault("share.publish.endpoint", "")
	v.SetDefault("share.publish.region", "us-east-1")
	v.SetDefault("share.publish.access_key", "")
	v.SetDefault("share.publish.secret_key", "")
	v.SetDefault("share.publish.bucket", "jaskmeme")
	v.SetDefault("share.publish.use_ssl", true)
	v.SetDefault("share.publish.public_base_url", "")
	v.SetDefault("share.publish.link_ttl", 24*time.Hour)

	v.SetDefault("ui.images_dir", ".")
	v.SetDefault("ui.preview_width", 40)

	v.SetDefault("log.file", filepath.Join(os.Getenv("HOME"), ".local", "state", "jaskmeme", "jaskmeme.log"))
}

// Load reads configuration from file and env. Env var overrides use prefix JASKMEME_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	if cfgPath := os.Getenv("JASKMEME_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "jaskmeme"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("JASKMEME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// a missing config file is fine, a broken one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, c.Validate()
}

// Validate rejects settings the rest of the program cannot work with.
func (c Config) Validate() error {
	switch strings.ToLower(c.Storage.Backend) {
	case "sqlite", "file":
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Storage.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("config: unknown sqlite driver %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("config: storage.key must not be empty")
	}
	if c.Render.Width <= 0 {
		return fmt.Errorf("config: render.width must be positive")
	}
	if c.Render.FontSize <= 0 {
		return fmt.Errorf("config: render.font_size must be positive")
	}
	if strings.TrimSpace(c.Export.Filename) == "" {
		return fmt.Errorf("config: export.filename must not be empty")
	}
	return nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// Publish credentials are never written; they come from env or the credential store.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("storage.backend", cfg.Storage.Backend)
	v.Set("storage.driver", cfg.Storage.Driver)
	v.Set("storage.path", cfg.Storage.Path)
	v.Set("storage.file", cfg.Storage.File)
	v.Set("storage.key", cfg.Storage.Key)
	v.Set("render.width", cfg.Render.Width)
	v.Set("render.font_size", cfg.Render.FontSize)
	v.Set("render.offset_x", cfg.Render.OffsetX)
	v.Set("render.offset_y", cfg.Render.OffsetY)
	v.Set("render.text_color", cfg.Render.TextColor)
	v.Set("render.shadow_color", cfg.Render.ShadowColor)
	v.Set("render.shadow_offset", cfg.Render.ShadowOffset)
	v.Set("render.shadow_blur", cfg.Render.ShadowBlur)
	v.Set("export.dir", cfg.Export.Dir)
	v.Set("export.filename", cfg.Export.Filename)
	v.Set("share.open_browser", cfg.Share.OpenBrowser)
	v.Set("share.publish.enabled", cfg.Share.Publish.Enabled)
	v.Set("share.publish.endpoint", cfg.Share.Publish.Endpoint)
	v.Set("share.publish.region", cfg.Share.Publish.Region)
	v.Set("share.publish.bucket", cfg.Share.Publish.Bucket)
	v.Set("share.publish.use_ssl", cfg.Share.Publish.UseSSL)
	v.Set("share.publish.public_base_url", cfg.Share.Publish.PublicBaseURL)
	v.Set("share.publish.link_ttl", cfg.Share.Publish.LinkTTL.String())
	v.Set("ui.images_dir", cfg.UI.ImagesDir)
	v.Set("ui.preview_width", cfg.UI.PreviewWidth)
	v.Set("log.file", cfg.Log.File)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
