// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/news-harvester/internal/extract"
	"github.com/JakeFAU/news-harvester/internal/logging"
	"github.com/JakeFAU/news-harvester/internal/orchestrator"
	"github.com/JakeFAU/news-harvester/internal/scheduler"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Crawl    CrawlConfig       `mapstructure:"crawl"`
	HTTP     HTTPConfig        `mapstructure:"http"`
	Extract  extract.Selectors `mapstructure:"extract"`
	Dates    DatesConfig       `mapstructure:"dates"`
	Schedule ScheduleConfig    `mapstructure:"schedule"`
	Store    StoreConfig       `mapstructure:"store"`
	Archive  ArchiveConfig     `mapstructure:"archive"`
	PubSub   PubSubConfig      `mapstructure:"pubsub"`
	Server   ServerConfig      `mapstructure:"server"`
	Logging  logging.Config    `mapstructure:"logging"`
}

// CrawlConfig describes what to harvest and how fast.
type CrawlConfig struct {
	Topic     string        `mapstructure:"topic"`
	SiteID    int           `mapstructure:"site_id"`
	SearchURL string        `mapstructure:"search_url"`
	Pages     int           `mapstructure:"pages"`
	PageDelay time.Duration `mapstructure:"page_delay"`
	UserAgent string        `mapstructure:"user_agent"`
	DetailRPS float64       `mapstructure:"detail_rps"`
}

// HTTPConfig configures the fetcher.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// DatesConfig sets the zone used for dates that carry none.
type DatesConfig struct {
	Location string `mapstructure:"location"`
}

// ScheduleConfig holds trigger and polling settings.
type ScheduleConfig struct {
	DailyAt       string        `mapstructure:"daily_at"`
	WeeklyDay     string        `mapstructure:"weekly_day"`
	WeeklyAt      string        `mapstructure:"weekly_at"`
	Interval      time.Duration `mapstructure:"interval"`
	RunOnStart    bool          `mapstructure:"run_on_start"`
	Tick          time.Duration `mapstructure:"tick"`
	CheckEvery    int           `mapstructure:"check_every"`
	AnnounceEvery int           `mapstructure:"announce_every"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
	Location      string        `mapstructure:"location"`
}

// StoreConfig selects and configures the article store.
type StoreConfig struct {
	Backend  string         `mapstructure:"backend"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// MongoConfig addresses the MongoDB collection.
type MongoConfig struct {
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	Collection     string `mapstructure:"collection"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// PostgresConfig addresses the Postgres table.
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// ArchiveConfig controls raw page archiving.
type ArchiveConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for stored-article notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ServerConfig controls the optional HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Store and archive backends.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
	ArchiveNone     = "none"
	ArchiveLocal    = "local"
	ArchiveGCS      = "gcs"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	sel := extract.DefaultSelectors()

	v.SetDefault("crawl.topic", "KDRT")
	v.SetDefault("crawl.site_id", 2)
	v.SetDefault("crawl.search_url", orchestrator.DefaultSearchURL)
	v.SetDefault("crawl.pages", 10)
	v.SetDefault("crawl.page_delay", time.Second)
	v.SetDefault("crawl.user_agent", "")
	v.SetDefault("crawl.detail_rps", 0)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("extract.listing_item", sel.ListingItem)
	v.SetDefault("extract.title", sel.Title)
	v.SetDefault("extract.anchor", sel.Anchor)
	v.SetDefault("extract.date_container", sel.DateContainer)
	v.SetDefault("extract.date_element", sel.DateElement)
	v.SetDefault("extract.date_attr", sel.DateAttr)
	v.SetDefault("extract.body_container", sel.BodyContainer)
	v.SetDefault("extract.paragraph", sel.Paragraph)
	v.SetDefault("extract.ad_marker", sel.AdMarker)
	v.SetDefault("dates.location", "Asia/Jakarta")
	v.SetDefault("schedule.daily_at", "02:00")
	v.SetDefault("schedule.weekly_day", "monday")
	v.SetDefault("schedule.weekly_at", "08:00")
	v.SetDefault("schedule.interval", 6*time.Hour)
	v.SetDefault("schedule.run_on_start", true)
	v.SetDefault("schedule.tick", time.Second)
	v.SetDefault("schedule.check_every", 60)
	v.SetDefault("schedule.announce_every", 15)
	v.SetDefault("schedule.cooldown", time.Minute)
	v.SetDefault("schedule.location", "Asia/Jakarta")
	v.SetDefault("store.backend", BackendMongo)
	v.SetDefault("store.mongo.uri", "mongodb://localhost:27017/")
	v.SetDefault("store.mongo.database", "CrawlingScrapping")
	v.SetDefault("store.mongo.collection", "coba")
	v.SetDefault("store.mongo.timeout_seconds", 10)
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.table", "articles")
	v.SetDefault("archive.backend", ArchiveNone)
	v.SetDefault("archive.dir", "archive")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("pubsub.enabled", false)
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic", "")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.file", "scraper.log")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Crawl.Topic) == "" {
		return fmt.Errorf("crawl.topic is required")
	}
	if !strings.Contains(c.Crawl.SearchURL, "{page}") {
		return fmt.Errorf("crawl.search_url must contain a {page} placeholder")
	}
	if c.Crawl.Pages <= 0 {
		return fmt.Errorf("crawl.pages must be > 0")
	}
	if c.Crawl.PageDelay < 0 {
		return fmt.Errorf("crawl.page_delay must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if _, err := c.Schedule.Parsed(nil); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendMongo:
		if c.Store.Mongo.URI == "" {
			return fmt.Errorf("store.mongo.uri is required for the mongo backend")
		}
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("store.backend must be one of mongo, postgres, memory; got %q", c.Store.Backend)
	}
	switch c.Archive.Backend {
	case ArchiveNone, "":
	case ArchiveLocal:
		if c.Archive.Dir == "" {
			return fmt.Errorf("archive.dir is required for the local archive")
		}
	case ArchiveGCS:
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket is required for the gcs archive")
		}
	default:
		return fmt.Errorf("archive.backend must be one of none, local, gcs; got %q", c.Archive.Backend)
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.Topic == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic must be set when pubsub is enabled")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// Parsed converts the schedule section into scheduler settings evaluated in loc.
func (s ScheduleConfig) Parsed(loc *time.Location) (scheduler.Config, error) {
	daily, err := scheduler.ParseTimeOfDay(s.DailyAt)
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("schedule.daily_at: %w", err)
	}
	weekday, err := scheduler.ParseWeekday(s.WeeklyDay)
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("schedule.weekly_day: %w", err)
	}
	weekly, err := scheduler.ParseTimeOfDay(s.WeeklyAt)
	if err != nil {
		return scheduler.Config{}, fmt.Errorf("schedule.weekly_at: %w", err)
	}
	if s.Tick < 0 || s.Cooldown < 0 || s.CheckEvery < 0 || s.AnnounceEvery < 0 {
		return scheduler.Config{}, fmt.Errorf("schedule polling values must not be negative")
	}
	return scheduler.Config{
		DailyAt:       daily,
		WeeklyDay:     weekday,
		WeeklyAt:      weekly,
		Interval:      s.Interval,
		RunOnStart:    s.RunOnStart,
		Tick:          s.Tick,
		CheckEvery:    s.CheckEvery,
		AnnounceEvery: s.AnnounceEvery,
		Cooldown:      s.Cooldown,
		Location:      loc,
	}, nil
}

// HTTPTimeout converts the fetch timeout into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
