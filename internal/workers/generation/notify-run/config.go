// internal/workers/generation/notify-run/config.go
package notifyrun

import (
	"fmt"
	"time"
)

type Config struct {
	EmailEnabled bool
	FromEmail    string
	SNSEnabled   bool
	TopicARN     string
	Timeout      time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.EmailEnabled && !isValidEmail(c.FromEmail) {
		return fmt.Errorf("from_email is required when email is enabled")
	}
	if c.SNSEnabled && c.TopicARN == "" {
		return fmt.Errorf("topic_arn is required when sns is enabled")
	}
	return nil
}
