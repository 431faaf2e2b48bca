package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Server    Server    `yaml:"server"`
	Admin     Admin     `yaml:"admin"`
	RateLimit RateLimit `yaml:"rateLimit"`
	Cache     Cache     `yaml:"cache"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type Admin struct {
	Username        string `yaml:"username"`
	PasswordHash    string `yaml:"passwordHash"` // bcrypt
	JWTSecret       string `yaml:"jwtSecret"`
	TokenTTLMinutes int    `yaml:"tokenTTLMinutes"`
}

func (a Admin) TokenTTL() time.Duration {
	if a.TokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

type RateLimit struct {
	Max           int `yaml:"max"`
	WindowSeconds int `yaml:"windowSeconds"`
}

func (r RateLimit) Limit() int {
	if r.Max <= 0 {
		return 30
	}
	return r.Max
}

func (r RateLimit) Window() time.Duration {
	if r.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(r.WindowSeconds) * time.Second
}

type Cache struct {
	Driver        string `yaml:"driver"` // memory, memcached
	MemcachedAddr string `yaml:"memcachedAddr"`
	TTLSeconds    int    `yaml:"ttlSeconds"`
}

func (c Cache) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.Listen == "" {
		config.Server.Listen = ":8000"
	}

	return config, nil
}
