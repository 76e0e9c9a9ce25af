package auth_gateway_config

import (
	"time"

	"github.com/NordCoder/Taskgate/internal/config"
	pg "github.com/NordCoder/Taskgate/internal/repository/postgres"
	redisrepo "github.com/NordCoder/Taskgate/internal/repository/redis"
)

type Auth struct {
	SecretKey        string   `mapstructure:"secret_key"`
	Algorithm        string   `mapstructure:"algorithm"`
	AccessTTLMinutes int      `mapstructure:"access_ttl_minutes"`
	RefreshTTLDays   int      `mapstructure:"refresh_ttl_days"`
	PublicPrefixes   []string `mapstructure:"public_prefixes"`
}

func (a Auth) AccessTTL() time.Duration  { return time.Duration(a.AccessTTLMinutes) * time.Minute }
func (a Auth) RefreshTTL() time.Duration { return time.Duration(a.RefreshTTLDays) * 24 * time.Hour }

type Password struct {
	BcryptCost     int `mapstructure:"bcrypt_cost"`
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

type RateLimit struct {
	Enable  bool          `mapstructure:"enable"`
	RPS     float64       `mapstructure:"rps"`
	Burst   int           `mapstructure:"burst"`
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

type Tasks struct {
	BaseURL  string        `mapstructure:"base_url"`
	GRPCAddr string        `mapstructure:"grpc_addr"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type Config struct {
	App       config.App       `mapstructure:"app"`
	Server    config.Server    `mapstructure:"server"`
	DB        pg.Config        `mapstructure:"db"`
	Redis     redisrepo.Config `mapstructure:"redis"`
	Auth      Auth             `mapstructure:"auth"`
	Password  Password         `mapstructure:"password"`
	RateLimit RateLimit        `mapstructure:"ratelimit"`
	Tasks     Tasks            `mapstructure:"tasks"`
	Startup   config.Startup   `mapstructure:"startup"`
	OTEL      config.OTEL      `mapstructure:"otel"`
	Log       config.Log       `mapstructure:"log"`
}
