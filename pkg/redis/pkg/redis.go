package redis

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	redistrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/redis/go-redis.v9"
)

// Config describes one redis connection. Durations are in milliseconds.
type Config struct {
	Address      string
	Username     string
	Password     string
	DB           int
	Namespace    string
	Debug        bool
	MaxRetries   int
	DialTimeout  int
	ReadTimeout  int
	WriteTimeout int
	PoolSize     int
	Trace        bool
}

// ReadConfig loads the redis.* keys.
func ReadConfig() *Config {
	return &Config{
		Address:      viper.GetString("redis.address"),
		Username:     viper.GetString("redis.username"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		Namespace:    viper.GetString("redis.namespace"),
		Debug:        viper.GetBool("redis.debug"),
		MaxRetries:   viper.GetInt("redis.max_retries"),
		DialTimeout:  viper.GetInt("redis.dial_timeout"),
		ReadTimeout:  viper.GetInt("redis.read_timeout"),
		WriteTimeout: viper.GetInt("redis.write_timeout"),
		PoolSize:     viper.GetInt("redis.pool_size"),
		Trace:        viper.GetBool("tracing.enabled"),
	}
}

func New(config *Config, opts ...Option) (*redis.Client, error) {
	if config == nil || config.Address == "" {
		return nil, fmt.Errorf("redis address is not configured")
	}
	o := &Opt{
		Options: &redis.Options{
			Addr: config.Address,
		},
	}
	if len(config.Username) > 0 {
		o.Username = config.Username
	}
	if len(config.Password) > 0 {
		o.Password = config.Password
	}
	if config.DB > 0 {
		o.DB = config.DB
	}
	if config.MaxRetries != 0 {
		o.MaxRetries = config.MaxRetries
	}
	if config.DialTimeout != 0 {
		o.DialTimeout = time.Duration(config.DialTimeout) * time.Millisecond
	}
	if config.ReadTimeout != 0 {
		o.ReadTimeout = time.Duration(config.ReadTimeout) * time.Millisecond
	}
	if config.WriteTimeout != 0 {
		o.WriteTimeout = time.Duration(config.WriteTimeout) * time.Millisecond
	}
	if config.PoolSize != 0 {
		o.PoolSize = config.PoolSize
	}

	for _, o0 := range opts {
		o0.Apply(o)
	}

	client := redis.NewClient(o.Options)
	client.AddHook(&nsHook{config.Namespace})
	client.AddHook(&debugHook{config.Debug})

	if config.Trace {
		redistrace.WrapClient(client, redistrace.WithServiceName("redis"))
	}
	return client, client.Ping(context.Background()).Err()
}

type Opt struct {
	*redis.Options
}

type Option interface {
	Apply(o *Opt)
}

type OptionFunc func(*Opt)

func (f OptionFunc) Apply(o *Opt) {
	f(o)
}

// ClientName sets the name reported by CLIENT LIST.
func ClientName(name string) Option {
	return OptionFunc(func(o *Opt) {
		o.ClientName = name
	})
}
