package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 8*time.Hour, cfg.JWT.Expiration)
	assert.NotEmpty(t, cfg.JWT.Secret)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "farm.inventory.stock", cfg.Kafka.StockTopic)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "farm:inventory:alerts", cfg.Redis.AlertsKey)
	assert.Equal(t, int64(100), cfg.Redis.AlertsCap)
	assert.Equal(t, 256, cfg.Events.QueueSize)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FARM_APP_PORT", "9090")
	t.Setenv("FARM_DATABASE_HOST", "db.internal")
	t.Setenv("FARM_DATABASE_MAX_OPEN_CONNS", "40")
	t.Setenv("FARM_KAFKA_ENABLED", "true")
	t.Setenv("FARM_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("FARM_REDIS_ENABLED", "true")
	t.Setenv("FARM_JWT_EXPIRATION", "2h")
	t.Setenv("FARM_HTTP_CORS_ALLOW_ORIGINS", "https://farm.example,https://ops.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 40, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, []string{"https://farm.example", "https://ops.example"}, cfg.HTTP.CORSAllowOrigins)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"idle above open", func(c *Config) { c.Database.MaxIdleConns = 50 }, "max_idle_conns"},
		{"unknown acks", func(c *Config) { c.Kafka.Acks = "most" }, "kafka.acks"},
		{"production short secret", func(c *Config) {
			c.App.Env = "production"
			c.JWT.Secret = "short"
			c.Database.Password = "pw"
			c.Database.SSLMode = "require"
		}, "jwt.secret"},
		{"production sslmode disabled", func(c *Config) {
			c.App.Env = "production"
			c.JWT.Secret = "0123456789abcdef0123456789abcdef"
			c.Database.Password = "pw"
		}, "sslmode"},
		{"production ok", func(c *Config) {
			c.App.Env = "production"
			c.JWT.Secret = "0123456789abcdef0123456789abcdef"
			c.Database.Password = "pw"
			c.Database.SSLMode = "require"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDSN_EscapesPassword(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5432, User: "farm", Password: "p@ss/word", DBName: "farm", SSLMode: "require"}
	assert.Equal(t, "postgres://farm:p%40ss%2Fword@h:5432/farm?sslmode=require", d.DSN())
}
