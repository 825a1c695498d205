package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"ERROR"`
	TypingDelay time.Duration `envconfig:"TYPING_DELAY" default:"1500ms"`
	// CLI_COLOURS enables colorized output
	Colours          bool `envconfig:"CLI_COLOURS" default:"true"`
	MaxContentLength int  `envconfig:"MAX_CONTENT_LENGTH" default:"4000"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
