package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/optimode/domaincheck"
)

// envPrefix is prepended to every flag name, upper-cased with dashes
// replaced, to form its environment variable, e.g. DOMAINCHECK_NO_CACHE.
const envPrefix = "DOMAINCHECK"

type config struct {
	Options  domaincheck.Options
	Workers  int
	LogLevel zerolog.Level
}

func registerFlags(fs *pflag.FlagSet) {
	fs.Bool("mx-not-required", false, "accept domains without MX records if an SMTP port answers")
	fs.Bool("smtp-not-required", false, "accept domains on MX records alone, without probing ports")
	fs.Bool("require-smtp-or-mx", false, "accept domains if either check succeeds")
	fs.Duration("timeout", domaincheck.DefaultSMTPConnectionTimeout, "timeout of each SMTP port probe")
	fs.Bool("no-cache", false, "do not reuse results of earlier checks")
	fs.Int("workers", 5, "number of inputs verified concurrently")
	fs.String("log-level", "warn", "log level (debug, info, warn, error)")
}

// loadConfig merges flags and DOMAINCHECK_* environment variables, flags
// taking precedence.
func loadConfig(fs *pflag.FlagSet) (config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return config{}, err
	}

	level, err := zerolog.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return config{}, fmt.Errorf("parsing log level: %w", err)
	}

	timeout := v.GetDuration("timeout")
	if timeout <= 0 {
		return config{}, fmt.Errorf("timeout must be positive, got %s", timeout)
	}
	if timeout > time.Minute {
		return config{}, fmt.Errorf("timeout must be at most 1m, got %s", timeout)
	}

	cfg := config{
		Options: domaincheck.Options{
			MXNotRequired:         v.GetBool("mx-not-required"),
			SMTPNotRequired:       v.GetBool("smtp-not-required"),
			RequireSMTPOrMX:       v.GetBool("require-smtp-or-mx"),
			SMTPConnectionTimeout: timeout,
			DisableCache:          v.GetBool("no-cache"),
		},
		Workers:  v.GetInt("workers"),
		LogLevel: level,
	}
	if _, err := domaincheck.EnsureOptions(cfg.Options); err != nil {
		return config{}, err
	}
	if cfg.Workers <= 0 {
		return config{}, fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	return cfg, nil
}
