package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// config is the daemon configuration. Flags override TENANCY_* environment
// variables (dots become underscores), which override the config file.
type config struct {
	HTTPAddr        string
	StoreDriver     string
	StoreDSN        string
	StoreMaxConns   int32
	RedisURL        string
	CacheTTL        time.Duration
	LogLevel        string
	SeedSystemRoles bool
	ShutdownTimeout time.Duration

	RequireMembership bool
}

type option struct {
	key   string
	flag  string
	def   any
	usage string
}

var options = []option{
	{"http.addr", "http-addr", ":8080", "address the HTTP API listens on"},
	{"http.shutdown_timeout", "shutdown-timeout", 10 * time.Second, "time allowed for in-flight requests on shutdown"},
	{"http.require_membership", "require-membership", false, "restrict member routes to tenant members and owners"},
	{"store.driver", "store-driver", "memory", "persistence backend: memory or postgres"},
	{"store.dsn", "store-dsn", "", "database connection string"},
	{"store.max_conns", "store-max-conns", 10, "maximum database connections"},
	{"redis.url", "redis-url", "", "redis URL for the membership cache; empty uses an in-process cache"},
	{"cache.ttl", "cache-ttl", 5 * time.Minute, "membership cache lifetime"},
	{"log.level", "log-level", "info", "log level: debug, info, warn or error"},
	{"seed.system_roles", "seed-system-roles", true, "create the system roles on start"},
}

// bindFlags registers every option on cmd and binds it to v.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	fs := cmd.PersistentFlags()
	for _, o := range options {
		switch d := o.def.(type) {
		case string:
			fs.String(o.flag, d, o.usage)
		case int:
			fs.Int(o.flag, d, o.usage)
		case bool:
			fs.Bool(o.flag, d, o.usage)
		case time.Duration:
			fs.Duration(o.flag, d, o.usage)
		default:
			return fmt.Errorf("option %s: unsupported default %T", o.key, o.def)
		}
		if err := v.BindPFlag(o.key, fs.Lookup(o.flag)); err != nil {
			return err
		}
		v.SetDefault(o.key, o.def)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("TENANCY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads the optional config file and decodes the settings.
func loadConfig(v *viper.Viper, file string) (*config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &config{
		HTTPAddr:        v.GetString("http.addr"),
		StoreDriver:     strings.ToLower(v.GetString("store.driver")),
		StoreDSN:        v.GetString("store.dsn"),
		StoreMaxConns:   v.GetInt32("store.max_conns"),
		RedisURL:        v.GetString("redis.url"),
		CacheTTL:        v.GetDuration("cache.ttl"),
		LogLevel:        v.GetString("log.level"),
		SeedSystemRoles: v.GetBool("seed.system_roles"),
		ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),

		RequireMembership: v.GetBool("http.require_membership"),
	}
	switch cfg.StoreDriver {
	case "memory":
	case "postgres":
		if cfg.StoreDSN == "" {
			return nil, fmt.Errorf("store.dsn is required for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	return cfg, nil
}
