// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Pipeline PipelineConfig
	S3       S3Config
	Deploy   DeployConfig
	History  HistoryConfig
	Logging  LoggingConfig
}

// PipelineConfig holds conversion pipeline settings.
type PipelineConfig struct {
	// InputPath is the sectioned ground-truth CSV to convert (default: ground-truth-hierarchical.csv)
	InputPath string `env:"INPUT_PATH" default:"ground-truth-hierarchical.csv"`

	// OutputDir is the root directory for versioned artifacts (default: ground-truth-output)
	OutputDir string `env:"OUTPUT_DIR" default:"ground-truth-output"`

	// VersionTag overrides the date-derived artifact version when set.
	// Leave empty to version by the current date as YYYY.MM.DD.
	VersionTag string `env:"VERSION_TAG"`

	// PublishTimeout bounds a full publish run including upload and
	// deployment restarts (default: 10m)
	PublishTimeout time.Duration `env:"PUBLISH_TIMEOUT" default:"10m"`
}

// S3Config holds artifact bucket settings.
type S3Config struct {
	// Bucket is the S3 bucket artifacts are published to (default: llm-evals-ground-truth-dev)
	Bucket string `env:"S3_BUCKET" default:"llm-evals-ground-truth-dev"`

	// Prefix is the key prefix under which artifacts live (default: datasets/traces)
	Prefix string `env:"S3_PREFIX" default:"datasets/traces"`

	// Region is the AWS region of the bucket (default: eu-west-2)
	// Supports both AWS_REGION and AWS_DEFAULT_REGION env vars for compatibility
	Region string `env:"AWS_REGION" envAlt:"AWS_DEFAULT_REGION" default:"eu-west-2"`
}

// DeployConfig holds consumer deployment restart settings.
type DeployConfig struct {
	// Namespace is the Kubernetes namespace of the consumers (default: langfuse)
	Namespace string `env:"DEPLOY_NAMESPACE" default:"langfuse"`

	// Deployments is a comma-separated list of deployments to restart after
	// a publish (default: metrics-service)
	Deployments []string `env:"DEPLOY_DEPLOYMENTS" default:"metrics-service"`

	// KubectlBin is the kubectl binary to invoke (default: kubectl)
	KubectlBin string `env:"KUBECTL_BIN" default:"kubectl"`

	// RolloutTimeout is how long to wait for a restarted deployment to
	// become ready (default: 2m)
	RolloutTimeout time.Duration `env:"ROLLOUT_TIMEOUT" default:"2m"`

	// SkipRestart disables consumer restarts after publish (default: false)
	SkipRestart bool `env:"DEPLOY_SKIP_RESTART" default:"false"`
}

// HistoryConfig holds run ledger settings.
type HistoryConfig struct {
	// Path is the SQLite file the run ledger is kept in (default: ground-truth-output/history.db)
	Path string `env:"HISTORY_DB_PATH" default:"ground-truth-output/history.db"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
