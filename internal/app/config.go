package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/egebot/core/config"
	coredatabase "github.com/m3rciful/egebot/core/database"
	"github.com/m3rciful/egebot/core/telegram/state"
)

// SessionConfig selects where conversation sessions live.
type SessionConfig struct {
	// URL is a redis:// location; empty keeps sessions in process memory.
	URL string        `yaml:"url" envconfig:"REDIS_LOCATION"`
	TTL time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
}

// Config is the bot configuration: the shared core plus database, sessions and subjects.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Session  SessionConfig       `yaml:"session"`
	// Subjects are the names a student can pick when saving a score.
	Subjects []string `yaml:"subjects" envconfig:"SUBJECTS"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads the YAML file at path, overlays the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must be >= 0")
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = state.DefaultTTL
	}
	c.Session.URL = strings.TrimSpace(c.Session.URL)

	c.Subjects = normalizeSubjects(c.Subjects)
	if len(c.Subjects) == 0 {
		return fmt.Errorf("at least one subject is required (subjects or SUBJECTS)")
	}
	for _, s := range c.Subjects {
		if n := len([]rune(s)); n > 50 {
			return fmt.Errorf("subject %q is longer than 50 characters", s)
		}
	}
	return nil
}

// normalizeSubjects trims names and drops empty and repeated ones, keeping order.
func normalizeSubjects(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
