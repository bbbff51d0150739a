package client

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// Config holds the db.* keys of the mysql progress backend.
type Config struct {
	Username        string
	Password        string
	Host            string
	Port            uint32
	Name            string
	TracingEnabled  bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifeTime int
}

func ReadConfig() *Config {
	// Enable environment variable usage
	_ = viper.BindEnv("db.user", "DB_USER")
	_ = viper.BindEnv("db.password", "DB_PASSWORD")
	_ = viper.BindEnv("db.host", "DB_HOST")
	_ = viper.BindEnv("db.port", "DB_PORT")
	_ = viper.BindEnv("db.name", "DB_NAME")

	return &Config{
		Username:        viper.GetString("db.user"),
		Password:        viper.GetString("db.password"),
		Host:            viper.GetString("db.host"),
		Port:            viper.GetUint32("db.port"),
		Name:            viper.GetString("db.name"),
		TracingEnabled:  viper.GetBool("tracing.enabled"),
		MaxOpenConns:    viper.GetInt("db.max_open_conns"),
		MaxIdleConns:    viper.GetInt("db.max_idle_conns"),
		ConnMaxLifeTime: viper.GetInt("db.conn_max_life_time"),
	}
}

// FormatDSN renders cfg as a go-sql-driver DSN.
func FormatDSN(cfg *Config) string {
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	mysqlConfig := mysql.NewConfig()
	mysqlConfig.Net = "tcp"
	mysqlConfig.Addr = fmt.Sprintf("%s:%d", cfg.Host, port)
	mysqlConfig.DBName = cfg.Name
	mysqlConfig.User = cfg.Username
	mysqlConfig.Passwd = cfg.Password
	mysqlConfig.AllowNativePasswords = true
	mysqlConfig.ParseTime = true
	mysqlConfig.Loc = time.UTC
	return mysqlConfig.FormatDSN()
}
