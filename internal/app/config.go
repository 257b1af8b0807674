package app

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the report job.
type Config struct {
	TestMode bool `envconfig:"VENDOR_SUMMARY_TEST_MODE" default:"false"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty" validate:"oneof=pretty json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFile   string `envconfig:"LOG_FILE"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:"sqlite://inventory.db" validate:"required"`

	SummaryTable string `envconfig:"SUMMARY_TABLE" default:"vendor_sales_summary" validate:"required,max=63"`
	WriteMode    string `envconfig:"WRITE_MODE" default:"replace" validate:"oneof=replace append"`
	PreviewRows  int    `envconfig:"PREVIEW_ROWS" default:"5" validate:"gte=-1"`
	SkipIndexes  bool   `envconfig:"SKIP_INDEXES" default:"false"`

	ExportCSV       string `envconfig:"EXPORT_CSV"`
	ExportXLSX      string `envconfig:"EXPORT_XLSX"`
	MetricsTextfile string `envconfig:"METRICS_TEXTFILE"`

	RedisAddr       string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RebuildSchedule string `envconfig:"REBUILD_SCHEDULE"`
}

var validate = validator.New()

// LoadConfig loads envFiles, or ./.env when present, and then reads the
// environment. Variables already set in the process win over file values.
func LoadConfig(envFiles ...string) (*Config, error) {
	err := godotenv.Load(envFiles...)
	if err != nil && (len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist)) {
		return nil, fmt.Errorf("app: load env file: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("app: invalid config: %w", err)
	}
	return &cfg, nil
}
