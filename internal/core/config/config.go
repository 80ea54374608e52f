package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const DefaultPath = "./configs/config.local.yaml"

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
	// 以下是中间件参数
	RateRPS          float64
	RateBurst        int
	PerIPRPS         float64
	PerIPBurst       int
	MaxConcurrent    int64
	RequestTimeoutMs int
	MaxBodyBytes     int64
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type Rotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate Rotate
}

type Redis struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
	TTLSec   int    `mapstructure:"ttlsec"`
}

type DB struct {
	Driver             string // postgres | mysql | sqlite | memory
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
	SlowThresholdMs    int
}

type Hash struct {
	Cost    int
	Workers int
}

// Admin cmd/migrate -seed-admin 使用的初始管理员
type Admin struct {
	Email    string
	Password string
}

type CORS struct {
	AllowOrigins []string
}

type Config struct {
	App   App
	Log   Log
	DB    DB
	Redis Redis `mapstructure:"redis"`
	Hash  Hash
	Admin Admin
	CORS  CORS
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "users-api")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 15)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.raterps", 200)
	v.SetDefault("app.http.rateburst", 400)
	v.SetDefault("app.http.maxconcurrent", 300)
	v.SetDefault("app.http.requesttimeoutms", 10000)
	v.SetDefault("app.http.maxbodybytes", 1<<20)
	v.SetDefault("app.http.periprps", 0)
	v.SetDefault("app.http.peripburst", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.rotate.enable", false)
	v.SetDefault("log.rotate.compress", false)
	v.SetDefault("log.rotate.filename", "logs/app.log")
	v.SetDefault("log.rotate.maxsizemb", 100)
	v.SetDefault("log.rotate.maxbackups", 7)
	v.SetDefault("log.rotate.maxagedays", 30)

	v.SetDefault("db.driver", "memory")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 10)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")
	v.SetDefault("db.slowthresholdms", 200)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "users:")
	v.SetDefault("redis.ttlsec", 300)

	v.SetDefault("hash.cost", 10)
	v.SetDefault("hash.workers", 0)

	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("cors.alloworigins", []string{})
}

// Parse 读取 path 指向的 YAML；文件不存在时只用默认值 + 环境变量
func Parse(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load 启动入口用，失败直接退出
func Load(path string) *Config {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = DefaultPath
		}
	}
	c, err := Parse(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return c
}

// Validate 同时规范化 db.driver
func (c *Config) Validate() error {
	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))
	if c.DB.Driver == "postgresql" {
		c.DB.Driver = "postgres"
	}
	switch c.DB.Driver {
	case "memory", "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.DB.Driver)
	}
	if c.DB.Driver != "memory" && c.DB.DSN == "" {
		return fmt.Errorf("config: db.dsn is required for driver %q", c.DB.Driver)
	}
	if c.App.HTTP.Port <= 0 || c.App.HTTP.Port > 65535 {
		return fmt.Errorf("config: invalid app.http.port %d", c.App.HTTP.Port)
	}
	return nil
}
