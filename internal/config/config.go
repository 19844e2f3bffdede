package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig   `mapstructure:"server"`
	Database  DatabaseConfig `mapstructure:"database"`
	Uploads   UploadsConfig  `mapstructure:"uploads"`
	Catalog   CatalogConfig  `mapstructure:"catalog"`
	Stats     StatsConfig    `mapstructure:"stats"`
	JWTSecret string         `mapstructure:"jwt_secret"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
}

type UploadsConfig struct {
	Path        string `mapstructure:"path"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

// CatalogConfig carries the closed product field enumeration. The
// permission engine treats fields as opaque tokens; this list is the
// one place the enumeration is defined.
type CatalogConfig struct {
	Fields []string `mapstructure:"fields"`
}

// StatsConfig holds the expressions classifying products for the
// stats endpoint, evaluated against each product row.
type StatsConfig struct {
	LowStockRule   string `mapstructure:"low_stock_rule"`
	OutOfStockRule string `mapstructure:"out_of_stock_rule"`
	ValueExpr      string `mapstructure:"value_expr"`
}

// ConnString returns the PostgreSQL connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../..")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.name", "inventory")
	viper.SetDefault("database.pool_size", 10)
	viper.SetDefault("jwt_secret", "changeme-secret")
	viper.SetDefault("uploads.path", "./uploads")
	viper.SetDefault("uploads.max_file_size", 10485760)
	viper.SetDefault("catalog.fields", []string{
		"image", "name", "productCode", "size", "manufacturer",
		"stock", "badStock", "bookings", "availableStock",
	})
	viper.SetDefault("stats.low_stock_rule", "availableStock < 10")
	viper.SetDefault("stats.out_of_stock_rule", "availableStock == 0")
	viper.SetDefault("stats.value_expr", "stock * 10")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
