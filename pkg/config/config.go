package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. FOOTSIZE_SERVER_ORIGIN.
const EnvPrefix = "FOOTSIZE"

// Config holds all application configuration values
type Config struct {
	ServerOrigin      string
	RequestTimeout    time.Duration
	ProfileUserID     int
	LogLevel          string
	LogFormat         string
	ServeAddr         string
	DefaultGender     string
	CameraPermission  bool
	GalleryPermission bool
}

var defaults = map[string]any{
	"server.origin":       "http://127.0.0.1:5000",
	"http.timeout":        30 * time.Second,
	"profile.user_id":     1,
	"log.level":           "info",
	"log.format":          "console",
	"serve.addr":          "127.0.0.1:8080",
	"home.gender":         "male",
	"permissions.camera":  true,
	"permissions.gallery": true,
}

// AddFlags registers the configuration flags on fs. Flag names match the viper keys.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("server.origin", defaults["server.origin"].(string), "Backend origin, e.g. http://192.168.1.10:5000")
	fs.Duration("http.timeout", defaults["http.timeout"].(time.Duration), "Per-request timeout (0 disables)")
	fs.Int("profile.user_id", defaults["profile.user_id"].(int), "User id sent with profile updates")
	fs.String("log.level", defaults["log.level"].(string), "Log level (debug|info|warn|error)")
	fs.String("log.format", defaults["log.format"].(string), "Log format (console|json)")
	fs.String("serve.addr", defaults["serve.addr"].(string), "Listen address of the screen server")
	fs.String("home.gender", defaults["home.gender"].(string), "Initial gender selection (male|female)")
	fs.Bool("permissions.camera", defaults["permissions.camera"].(bool), "Grant camera access to the image picker")
	fs.Bool("permissions.gallery", defaults["permissions.gallery"].(bool), "Grant gallery access to the image picker")
}

// NewViper returns a viper instance with defaults and environment binding set up.
func NewViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads configuration from the .env file, an optional config file,
// environment variables and flags, in increasing order of precedence.
func LoadConfig(v *viper.Viper, configFile string, fs *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded")
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("error binding flags: %w", err)
		}
	}

	cfg := &Config{
		ServerOrigin:      strings.TrimRight(v.GetString("server.origin"), "/"),
		RequestTimeout:    v.GetDuration("http.timeout"),
		ProfileUserID:     v.GetInt("profile.user_id"),
		LogLevel:          v.GetString("log.level"),
		LogFormat:         v.GetString("log.format"),
		ServeAddr:         v.GetString("serve.addr"),
		DefaultGender:     strings.ToLower(v.GetString("home.gender")),
		CameraPermission:  v.GetBool("permissions.camera"),
		GalleryPermission: v.GetBool("permissions.gallery"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail on first use.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.ServerOrigin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.origin %q is not an absolute URL", c.ServerOrigin))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("http.timeout must not be negative"))
	}
	if c.DefaultGender != "male" && c.DefaultGender != "female" {
		errs = append(errs, fmt.Errorf("home.gender must be male or female, got %q", c.DefaultGender))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}
