package task_service_config

import (
	"time"

	"github.com/NordCoder/Taskgate/internal/config"
	pg "github.com/NordCoder/Taskgate/internal/repository/postgres"
)

type Kafka struct {
	Enable       bool          `mapstructure:"enable"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EventTimeout time.Duration `mapstructure:"event_timeout"`
}

// Outbox applies when kafka.enable is set: events are stored with the write
// and relayed to Kafka by background workers.
type Outbox struct {
	Enable        bool          `mapstructure:"enable"`
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type Health struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type Config struct {
	App     config.App     `mapstructure:"app"`
	Server  config.Server  `mapstructure:"server"`
	DB      pg.Config      `mapstructure:"db"`
	Kafka   Kafka          `mapstructure:"kafka"`
	Outbox  Outbox         `mapstructure:"outbox"`
	Health  Health         `mapstructure:"health"`
	Startup config.Startup `mapstructure:"startup"`
	OTEL    config.OTEL    `mapstructure:"otel"`
	Log     config.Log     `mapstructure:"log"`
}
