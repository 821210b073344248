package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Credentials holds the secrets loaded from the environment. A .env file
// in the working directory is honored when present, matching how the
// exchange and Slack keys are provisioned in deployment.
type Credentials struct {
	UpbitAccessKey string
	UpbitSecretKey string
	SlackToken     string
	SlackChannel   string
}

// LoadCredentials reads secrets from the environment (and .env if one
// exists). Nothing here is validated beyond presence checks the callers
// do themselves: the Slack sink is optional, the exchange keys are not.
func LoadCredentials() Credentials {
	_ = godotenv.Load()

	return Credentials{
		UpbitAccessKey: os.Getenv("UPBIT_ACCESS_KEY"),
		UpbitSecretKey: os.Getenv("UPBIT_SECRET_KEY"),
		SlackToken:     os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannel:   firstEnv("SLACK_CHANNEL_ID", "SLACK_CHANNEL"),
	}
}

// RequireExchange errors when the exchange keys are missing; trading
// cannot run unauthenticated.
func (c Credentials) RequireExchange() error {
	if c.UpbitAccessKey == "" || c.UpbitSecretKey == "" {
		return fmt.Errorf("UPBIT_ACCESS_KEY and UPBIT_SECRET_KEY must be set")
	}
	return nil
}

// HasSlack reports whether Slack notifications can be enabled.
func (c Credentials) HasSlack() bool {
	return c.SlackToken != "" && c.SlackChannel != ""
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
