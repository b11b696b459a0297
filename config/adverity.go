package config

import (
	"sort"
	"strings"
	"time"
)

// AdverityConfig contains the vendor instance, credentials and stream catalog.
type AdverityConfig struct {
	// Instance is the Adverity host, e.g. "acme.datatap.adverity.com".
	Instance string `env:"ADVERITY_INSTANCE"`

	// Token is the bearer token used for every Adverity API call.
	Token string `env:"ADVERITY_TOKEN"`

	// Scheme is "https" in production; tests point it at plain HTTP servers.
	Scheme string `env:"ADVERITY_SCHEME" envDefault:"https"`

	// TriggerTimeout bounds the fetch_fixed call.
	TriggerTimeout time.Duration `env:"ADVERITY_TRIGGER_TIMEOUT" envDefault:"30s"`

	// StatusTimeout bounds each job status call.
	StatusTimeout time.Duration `env:"ADVERITY_STATUS_TIMEOUT" envDefault:"15s"`

	// CallbackEnabled adds a callback URL (APP_BASE_URL + /adverity/callback) to trigger requests.
	CallbackEnabled bool `env:"ADVERITY_CALLBACK_ENABLED" envDefault:"false"`

	// Streams maps lower-case stream names to datastream ids, e.g. "meta:674,google:701".
	Streams map[string]string `env:"ADVERITY_STREAMS" envDefault:"meta:674" envKeyValSeparator:":" envSeparator:","`
}

// Sanitize normalises hosts and stream names.
func (c *AdverityConfig) Sanitize() {
	c.Instance = strings.TrimSpace(c.Instance)
	c.Instance = strings.TrimPrefix(strings.TrimPrefix(c.Instance, "https://"), "http://")
	c.Instance = strings.TrimRight(c.Instance, "/")
	c.Token = strings.TrimSpace(c.Token)

	c.Scheme = strings.ToLower(strings.TrimSpace(c.Scheme))
	if c.Scheme != "http" {
		c.Scheme = "https"
	}
	if c.TriggerTimeout <= 0 {
		c.TriggerTimeout = 30 * time.Second
	}
	if c.StatusTimeout <= 0 {
		c.StatusTimeout = 15 * time.Second
	}

	streams := make(map[string]string, len(c.Streams))
	for name, id := range c.Streams {
		name = strings.ToLower(strings.TrimSpace(name))
		id = strings.TrimSpace(id)
		if name == "" || id == "" {
			continue
		}
		streams[name] = id
	}
	c.Streams = streams
}

// MissingKeys returns the environment keys that must be set before a job can be triggered.
func (c *AdverityConfig) MissingKeys() []string {
	var missing []string
	if c.Instance == "" {
		missing = append(missing, "ADVERITY_INSTANCE")
	}
	if c.Token == "" {
		missing = append(missing, "ADVERITY_TOKEN")
	}
	if len(c.Streams) == 0 {
		missing = append(missing, "ADVERITY_STREAMS")
	}
	return missing
}

// StreamNames returns the catalog's stream names in alphabetical order.
func (c *AdverityConfig) StreamNames() []string {
	names := make([]string, 0, len(c.Streams))
	for name := range c.Streams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
