package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverMySQL  = "mysql"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env:"PORT" env-default:"8080"`
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP;
	// enable only behind a reverse proxy that sets them.
	TrustProxy bool `yaml:"trust_proxy" env:"TRUST_PROXY" env-default:"false"`
	// CorsOrigins lists front end origins allowed to call the API from another host.
	CorsOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:","`
}

type AdminConfig struct {
	Password string `yaml:"password" env:"ADMIN_PASSWORD" env-default:""`
}

type StoreConfig struct {
	Driver string `yaml:"driver" env:"STORE_DRIVER" env-default:"memory"`
}

type MySQLConfig struct {
	HostName string `yaml:"host_name" env:"DATABASE_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"DATABASE_PORT" env-default:"3306"`
	UserName string `yaml:"user_name" env:"DATABASE_USER" env-default:""`
	Password string `yaml:"password" env:"DATABASE_PASSWORD" env-default:""`
	Database string `yaml:"database" env:"DATABASE_NAME" env-default:"guestlist"`
	Prefix   string `yaml:"prefix" env-default:""`
}

type MongoConfig struct {
	Host     string `yaml:"host" env:"MONGO_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
	User     string `yaml:"user" env:"MONGO_USER" env-default:""`
	Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"guestlist"`
}

type MailConfig struct {
	ApiKey     string `yaml:"api_key" env:"RESEND_API_KEY" env-default:""`
	From       string `yaml:"from" env:"MAIL_FROM" env-default:"Guestlist <no-reply@example.com>"`
	Subject    string `yaml:"subject" env-default:"You are in. Your access is approved."`
	EventTitle string `yaml:"event_title" env-default:"GUESTLIST"`
	LogoUrl    string `yaml:"logo_url" env-default:""`
}

type TelegramConfig struct {
	Enabled         bool    `yaml:"enabled" env-default:"false"`
	ApiKey          string  `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
	AdminIds        []int64 `yaml:"admin_ids" env:"TELEGRAM_ADMIN_IDS" env-separator:","`
	LogLevel        string  `yaml:"log_level" env-default:"error"`
	SummaryInterval int     `yaml:"summary_interval_min" env-default:"0"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env-default:"0"`
	// RegisterLimit is the number of registrations accepted per client address per minute.
	RegisterLimit int64 `yaml:"register_limit" env-default:"10"`
}

type Config struct {
	Env       string         `yaml:"env" env:"ENV" env-default:"local"`
	Location  string         `yaml:"location" env:"LOCATION" env-default:"UTC"`
	StaticDir string         `yaml:"static_dir" env:"STATIC_DIR" env-default:""`
	Listen    Listen         `yaml:"listen"`
	Admin     AdminConfig    `yaml:"admin"`
	Store     StoreConfig    `yaml:"store"`
	MySQL     MySQLConfig    `yaml:"mysql"`
	Mongo     MongoConfig    `yaml:"mongo"`
	Mail      MailConfig     `yaml:"mail"`
	Telegram  TelegramConfig `yaml:"telegram"`
	Redis     RedisConfig    `yaml:"redis"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
		if err = instance.check(); err != nil {
			log.Fatal(fmt.Errorf("config: %w", err))
		}
	})
	return instance
}

func (c *Config) check() error {
	switch c.Store.Driver {
	case DriverMySQL, DriverMongo, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}
