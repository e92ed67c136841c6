package config

import (
	"os"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:      AppConfig{Name: "test", Environment: "development"},
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Host: "localhost", DBName: "work_pulse"},
		JWT:      JWTConfig{Secret: "secret"},
		Calendar: CalendarConfig{CacheSize: 16, MaxOccurrences: 100, DefaultTimezone: "UTC"},
		Focus:    FocusConfig{DefaultDuration: 25 * time.Minute, MaxDuration: 4 * time.Hour},
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	envVars := []string{
		"APP_NAME", "APP_ENVIRONMENT", "APP_DEBUG",
		"SERVER_HOST", "SERVER_PORT",
		"DATABASE_HOST", "DATABASE_PORT", "DATABASE_DBNAME",
		"REDIS_HOST", "REDIS_PORT",
		"KAFKA_ENABLED", "KAFKA_BROKERS",
		"JWT_SECRET",
		"CALENDAR_CACHE_SIZE", "CALENDAR_RECURRENCE_HORIZON", "CALENDAR_DEFAULT_TIMEZONE",
		"FOCUS_DEFAULT_DURATION",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.App.Name != "work-pulse" {
		t.Errorf("App.Name = %q, want %q", cfg.App.Name, "work-pulse")
	}

	if cfg.App.Environment != "development" {
		t.Errorf("App.Environment = %q, want %q", cfg.App.Environment, "development")
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}

	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, 5432)
	}

	if cfg.Redis.Port != 6379 {
		t.Errorf("Redis.Port = %d, want %d", cfg.Redis.Port, 6379)
	}

	if cfg.Kafka.Enabled {
		t.Error("Kafka.Enabled = true, want false")
	}

	if len(cfg.Kafka.Brokers) != 1 || cfg.Kafka.Brokers[0] != "localhost:9092" {
		t.Errorf("Kafka.Brokers = %v, want [localhost:9092]", cfg.Kafka.Brokers)
	}

	if cfg.Calendar.RecurrenceHorizon != 2*365*24*time.Hour {
		t.Errorf("Calendar.RecurrenceHorizon = %s, want 2 years", cfg.Calendar.RecurrenceHorizon)
	}

	if cfg.Calendar.CacheSize != 1024 {
		t.Errorf("Calendar.CacheSize = %d, want %d", cfg.Calendar.CacheSize, 1024)
	}

	if cfg.Focus.DefaultDuration != 25*time.Minute {
		t.Errorf("Focus.DefaultDuration = %s, want 25m", cfg.Focus.DefaultDuration)
	}
}

func TestLoad_WithEnvOverride(t *testing.T) {
	os.Setenv("APP_NAME", "test-app")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("DATABASE_HOST", "db.example.com")
	os.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	os.Setenv("CALENDAR_DEFAULT_TIMEZONE", "Asia/Colombo")
	defer func() {
		os.Unsetenv("APP_NAME")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("DATABASE_HOST")
		os.Unsetenv("KAFKA_BROKERS")
		os.Unsetenv("CALENDAR_DEFAULT_TIMEZONE")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.App.Name != "test-app" {
		t.Errorf("App.Name = %q, want %q", cfg.App.Name, "test-app")
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}

	if cfg.Database.Host != "db.example.com" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "db.example.com")
	}

	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %v, want [k1:9092 k2:9092]", cfg.Kafka.Brokers)
	}

	if loc := cfg.Calendar.Location(); loc.String() != "Asia/Colombo" {
		t.Errorf("Calendar.Location() = %q, want %q", loc, "Asia/Colombo")
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	if dsn := cfg.DSN(); dsn != expected {
		t.Errorf("DSN() = %q, want %q", dsn, expected)
	}
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{
		Host: "redis.example.com",
		Port: 6380,
	}

	expected := "redis.example.com:6380"
	if addr := cfg.Addr(); addr != expected {
		t.Errorf("Addr() = %q, want %q", addr, expected)
	}
}

func TestCalendarConfig_Location(t *testing.T) {
	tests := []struct {
		name string
		tz   string
		want string
	}{
		{"empty", "", "UTC"},
		{"valid", "Europe/London", "Europe/London"},
		{"unknown falls back", "Mars/Olympus", "UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := CalendarConfig{DefaultTimezone: tt.tz}
			if got := cfg.Location().String(); got != tt.want {
				t.Errorf("Location() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOTelConfig_LogExportEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  OTelConfig
		want string
	}{
		{"disabled", OTelConfig{CollectorAddr: "localhost:4317"}, ""},
		{"collector", OTelConfig{Enabled: true, CollectorAddr: "localhost:4317"}, "localhost:4317"},
		{"override", OTelConfig{Enabled: true, CollectorAddr: "localhost:4317", LogsEndpoint: "logs:4318"}, "logs:4318"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.LogExportEndpoint(); got != tt.want {
				t.Errorf("LogExportEndpoint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing app name",
			mutate:  func(c *Config) { c.App.Name = "" },
			wantErr: true,
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: true,
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: true,
		},
		{
			name:    "missing JWT secret",
			mutate:  func(c *Config) { c.JWT.Secret = "" },
			wantErr: true,
		},
		{
			name: "default JWT secret in production",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.JWT.Secret = defaultJWTSecret
			},
			wantErr: true,
		},
		{
			name: "kafka enabled without brokers",
			mutate: func(c *Config) {
				c.Kafka.Enabled = true
				c.Kafka.Brokers = nil
			},
			wantErr: true,
		},
		{
			name:    "zero cache size",
			mutate:  func(c *Config) { c.Calendar.CacheSize = 0 },
			wantErr: true,
		},
		{
			name:    "unknown timezone",
			mutate:  func(c *Config) { c.Calendar.DefaultTimezone = "Nowhere/Land" },
			wantErr: true,
		},
		{
			name:    "focus default above max",
			mutate:  func(c *Config) { c.Focus.DefaultDuration = 5 * time.Hour },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := &Config{
		App: AppConfig{Environment: "production"},
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}

	cfg.App.Environment = "development"
	if cfg.IsProduction() {
		t.Error("IsProduction() = true, want false")
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{
		App: AppConfig{Environment: "development"},
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}

	cfg.App.Environment = "production"
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
}
