package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"anp_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"anp_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"anp_comb" description:"Database name"`

	// Application configuration
	ProvidersDir      string `long:"providers-dir" env:"PROVIDERS_DIR" default:"./providers" description:"Directory containing ingest provider configuration files"`
	VocabulariesFile  string `long:"vocabularies-file" env:"VOCABULARIES_FILE" default:"./data/vocabularies.json" description:"JSON file with controlled vocabularies and content profiles"`
	MediaDir          string `long:"media-dir" env:"MEDIA_DIR" default:"./media" description:"Directory for downloaded media renditions"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://ingest.example.com)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for ingest processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Vendor HTTP settings
	HTTPTimeout int `long:"http-timeout" env:"HTTP_TIMEOUT" default:"60" description:"Timeout ceiling in seconds for outbound vendor calls"`

	// Search provider endpoints
	PhotoAPIURL string `long:"photo-api-url" env:"PHOTO_API_URL" description:"XML-RPC endpoint of the photo catalog (disabled when empty)"`
	PhotoAPIKey string `long:"photo-api-key" env:"PHOTO_API_KEY" description:"API key for the photo catalog"`
	VideoAPIURL string `long:"video-api-url" env:"VIDEO_API_URL" default:"https://graph.kijk.nl/graphql" description:"GraphQL endpoint of the video catalog"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"ANP Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Amsterdam)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:            raw.DBHost,
		DBPort:            raw.DBPort,
		DBUser:            raw.DBUser,
		DBPassword:        raw.DBPassword,
		DBName:            raw.DBName,
		ProvidersDir:      raw.ProvidersDir,
		VocabulariesFile:  raw.VocabulariesFile,
		MediaDir:          raw.MediaDir,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		HTTPTimeout:       raw.HTTPTimeout,
		PhotoAPIURL:       raw.PhotoAPIURL,
		PhotoAPIKey:       raw.PhotoAPIKey,
		VideoAPIURL:       raw.VideoAPIURL,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
