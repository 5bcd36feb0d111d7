package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/shutter/internal/platform"
	"github.com/starford/shutter/internal/prefs"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Camera sources.
const (
	CameraSourceUpload = "upload"
	CameraSourceSpool  = "spool"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Gallery GalleryConfig     `yaml:"gallery"`
	Storage StorageConfig     `yaml:"storage"`
	Prefs   PrefsConfig       `yaml:"prefs"`
	Camera  CameraConfig      `yaml:"camera"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Gallery.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Prefs.Validate(); err != nil {
		return err
	}
	if err := c.Camera.Validate(); err != nil {
		return err
	}
	if c.Camera.Source == CameraSourceSpool && c.Gallery.Mode != string(platform.ModeNative) {
		return fmt.Errorf("camera: source %q requires gallery mode %q", CameraSourceSpool, platform.ModeNative)
	}
	return c.Auth.Validate()
}

// BlobBaseURL returns the absolute URL prefix web capture handles point at.
func (c *Config) BlobBaseURL() string {
	if c.Camera.BaseURL != "" {
		return c.Camera.BaseURL
	}
	return fmt.Sprintf("http://127.0.0.1:%d", c.App.HTTP.Port)
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// GalleryConfig selects the runtime mode the photo store runs in.
type GalleryConfig struct {
	Mode string `yaml:"mode"`
}

// Validate validates the gallery configuration.
func (c *GalleryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required,
			validation.In(string(platform.ModeNative), string(platform.ModeWeb))),
	)
}

// StorageConfig holds the application data directory photos are written to.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
	)
}

// PrefsConfig holds the preferences backend the photo index is saved in.
type PrefsConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Validate validates the preferences configuration.
func (c *PrefsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(prefs.DriverSQLite, prefs.DriverBadger, prefs.DriverMemory)),
		validation.Field(&c.Path, validation.When(c.Driver != prefs.DriverMemory, validation.Required)),
	)
}

// CameraConfig holds capture configuration.
//
// Source "upload" takes the image from the capture request; "spool" waits for
// a tethered camera to drop a JPEG into SpoolDir.
type CameraConfig struct {
	Source         string        `yaml:"source"`
	StageDir       string        `yaml:"stage_dir"`
	SpoolDir       string        `yaml:"spool_dir"`
	CaptureTimeout time.Duration `yaml:"capture_timeout"`
	BlobTTL        time.Duration `yaml:"blob_ttl"`
	BaseURL        string        `yaml:"base_url"`
}

// Validate validates the camera configuration.
func (c *CameraConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.Required, validation.In(CameraSourceUpload, CameraSourceSpool)),
		validation.Field(&c.SpoolDir, validation.When(c.Source == CameraSourceSpool, validation.Required)),
		validation.Field(&c.CaptureTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.BlobTTL, validation.Required, validation.Min(time.Second)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Gallery: GalleryConfig{
			Mode: string(platform.ModeNative),
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Prefs: PrefsConfig{
			Driver: prefs.DriverSQLite,
			Path:   "./shutter.db",
		},
		Camera: CameraConfig{
			Source:         CameraSourceUpload,
			StageDir:       "",
			CaptureTimeout: 2 * time.Minute,
			BlobTTL:        5 * time.Minute,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
