package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	WorkflowPath string // JSON workflow document
	StatePath    string // optional JSON execution snapshot

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkflowPath == "" {
		return nil, errors.New("WorkflowPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
