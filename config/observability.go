package config

import (
	"strings"
	"time"
)

// MetricsConfig points the StatsD emitter at an agent. Leaving
// METRICS_STATSD_ADDR empty turns metrics off.
type MetricsConfig struct {
	StatsdAddr string            `env:"STATSD_ADDR"`
	Prefix     string            `env:"PREFIX" envDefault:"escrow"`
	Tags       map[string]string `env:"TAGS"` // e.g. env:prod,region:us-east-1
}

// Enabled reports whether an agent address is configured.
func (c MetricsConfig) Enabled() bool {
	return c.StatsdAddr != ""
}

// Sanitize trims the address and strips dots around the prefix.
func (c *MetricsConfig) Sanitize() {
	c.StatsdAddr = strings.TrimSpace(c.StatsdAddr)
	c.Prefix = strings.Trim(strings.TrimSpace(c.Prefix), ".")
	if c.Prefix == "" {
		c.Prefix = "escrow"
	}
	tags := make(map[string]string, len(c.Tags))
	for k, v := range c.Tags {
		if k = strings.TrimSpace(k); k != "" {
			tags[k] = strings.TrimSpace(v)
		}
	}
	c.Tags = tags
}

// AlertsConfig controls where partial payment failures are paged. Each sink
// turns on when its credential is set.
type AlertsConfig struct {
	Timeout  time.Duration `env:"TIMEOUT"  envDefault:"5s"`
	Attempts int           `env:"ATTEMPTS" envDefault:"3"`
	// Cooldown mutes repeats of the same incident, mostly stuck milestones
	// reported on every sweep.
	Cooldown     time.Duration `env:"COOLDOWN"       envDefault:"30m"`
	SkipTestMode bool          `env:"SKIP_TEST_MODE" envDefault:"true"`

	Slack     SlackAlertConfig     `envPrefix:"SLACK_"`
	PagerDuty PagerDutyAlertConfig `envPrefix:"PAGERDUTY_"`
}

// Sanitize clamps numeric knobs and trims sink settings.
func (c *AlertsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	c.Attempts = min(max(c.Attempts, 1), 10)
	if c.Cooldown < 0 {
		c.Cooldown = 0
	}

	c.Slack.WebhookURL = strings.TrimSpace(c.Slack.WebhookURL)
	c.Slack.Channel = strings.TrimSpace(c.Slack.Channel)
	c.Slack.JobURLPrefix = strings.TrimSpace(c.Slack.JobURLPrefix)
	c.PagerDuty.RoutingKey = strings.TrimSpace(c.PagerDuty.RoutingKey)
	c.PagerDuty.Endpoint = strings.TrimSpace(c.PagerDuty.Endpoint)
}

// SlackAlertConfig configures the incoming-webhook sink.
type SlackAlertConfig struct {
	WebhookURL   string `env:"WEBHOOK_URL"`
	Channel      string `env:"CHANNEL"`
	Username     string `env:"USERNAME" envDefault:"escrow"`
	JobURLPrefix string `env:"JOB_URL_PREFIX"`
}

// Enabled reports whether a webhook URL is set.
func (c SlackAlertConfig) Enabled() bool { return c.WebhookURL != "" }

// PagerDutyAlertConfig configures the Events API v2 sink.
type PagerDutyAlertConfig struct {
	RoutingKey string `env:"ROUTING_KEY"`
	Source     string `env:"SOURCE"    envDefault:"escrow-api"`
	Component  string `env:"COMPONENT" envDefault:"payments"`
	Endpoint   string `env:"ENDPOINT"`
}

// Enabled reports whether a routing key is set.
func (c PagerDutyAlertConfig) Enabled() bool { return c.RoutingKey != "" }
