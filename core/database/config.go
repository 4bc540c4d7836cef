package database

import (
	"fmt"
	"net"
	"net/url"
)

// Config holds database connection settings.
type Config struct {
	Host           string `yaml:"host" envconfig:"POSTGRES_HOST"`
	Port           string `yaml:"port" envconfig:"POSTGRES_PORT"`
	User           string `yaml:"user" envconfig:"POSTGRES_USER"`
	Password       string `yaml:"password" envconfig:"POSTGRES_PASSWORD"`
	Name           string `yaml:"name" envconfig:"POSTGRES_DB"`
	SSLMode        string `yaml:"sslmode" envconfig:"POSTGRES_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"POSTGRES_MAX_CONNECTIONS"`
}

// Normalize fills defaults and validates required fields.
func (c *Config) Normalize() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Port == "" {
		c.Port = "5432"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 10
	}
	return nil
}

// DSN returns a lib/pq keyword/value connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		quoteValue(c.User), quoteValue(c.Password), c.Host, c.Port, quoteValue(c.Name), c.SSLMode,
	)
}

// URL returns the connection string in URL form as expected by golang-migrate.
func (c Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

func quoteValue(v string) string {
	if v == "" {
		return "''"
	}
	out := make([]rune, 0, len(v)+2)
	out = append(out, '\'')
	for _, r := range v {
		if r == '\'' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '\''))
}
