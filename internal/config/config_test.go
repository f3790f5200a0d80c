package config

import (
	"os"
	"testing"
	"time"
)

var allEnvVars = []string{
	"HOST", "PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT",
	"ENVIRONMENT", "API_PREFIX", "CORS_ALLOWED_ORIGINS",
	"DB_DRIVER", "DB_PATH", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME", "DB_LOG_LEVEL",
	"REDIS_ENABLED", "REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"REDIS_MIN_IDLE_CONNS", "REDIS_MAX_RETRIES", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"JWT_SECRET", "JWT_ISSUER", "ACCESS_TOKEN_TTL", "BCRYPT_COST", "SESSION_COOKIE_NAME",
	"USER_DIRECTORY_ENABLED", "USER_DIRECTORY_TABLE", "USER_DIRECTORY_NAME_COLUMN", "USER_DIRECTORY_CACHE_TTL",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP",
}

func setEnvVars(vars map[string]string) {
	for k, v := range vars {
		os.Setenv(k, v)
	}
}

func clearEnvVars(vars []string) {
	for _, k := range vars {
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error with default config, got: %v", err)
	}

	if config.Server.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got %s", config.Server.Host)
	}

	if config.Server.Port != "8080" {
		t.Errorf("Expected default port '8080', got %s", config.Server.Port)
	}

	if config.Server.APIPrefix != "/api" {
		t.Errorf("Expected default API prefix '/api', got %s", config.Server.APIPrefix)
	}

	if config.Server.Environment != "development" {
		t.Errorf("Expected default environment 'development', got %s", config.Server.Environment)
	}

	if config.Database.Driver != DriverSQLite {
		t.Errorf("Expected default driver 'sqlite', got %s", config.Database.Driver)
	}

	if config.Database.Path != "./sqlite.db" {
		t.Errorf("Expected default sqlite path './sqlite.db', got %s", config.Database.Path)
	}

	if config.Database.MaxOpenConns != 25 {
		t.Errorf("Expected default max open conns 25, got %d", config.Database.MaxOpenConns)
	}

	if config.Redis.Enabled {
		t.Error("Expected Redis to be disabled by default")
	}

	if config.Redis.PoolSize != 10 {
		t.Errorf("Expected default Redis pool size 10, got %d", config.Redis.PoolSize)
	}

	if config.Auth.BCryptCost != 10 {
		t.Errorf("Expected default bcrypt cost 10, got %d", config.Auth.BCryptCost)
	}

	if config.Auth.CookieName != "session_token" {
		t.Errorf("Expected default cookie name 'session_token', got %s", config.Auth.CookieName)
	}

	if !config.Directory.Enabled {
		t.Error("Expected user directory to be enabled by default")
	}

	if config.Directory.Table != "users" || config.Directory.NameColumn != "name" {
		t.Errorf("Expected directory users.name, got %s.%s", config.Directory.Table, config.Directory.NameColumn)
	}

	if !config.RateLimit.Enabled {
		t.Error("Expected rate limiting to be enabled by default")
	}

	if config.RateLimit.RequestsPerMin != 100 {
		t.Errorf("Expected default requests per minute 100, got %d", config.RateLimit.RequestsPerMin)
	}
}

func TestLoadConfig_CustomEnvironment(t *testing.T) {
	envVars := map[string]string{
		"HOST":                       "0.0.0.0",
		"PORT":                       "9000",
		"ENVIRONMENT":                "production",
		"API_PREFIX":                 "/v1",
		"CORS_ALLOWED_ORIGINS":       "https://a.example.com, https://b.example.com",
		"DB_DRIVER":                  "POSTGRES",
		"DB_HOST":                    "db.example.com",
		"DB_PASSWORD":                "secure_password",
		"DB_MAX_OPEN_CONNS":          "50",
		"REDIS_ENABLED":              "true",
		"REDIS_HOST":                 "redis.example.com",
		"REDIS_DB":                   "1",
		"JWT_SECRET":                 "super-secret-key",
		"ACCESS_TOKEN_TTL":           "30m",
		"USER_DIRECTORY_TABLE":       "profiles",
		"USER_DIRECTORY_NAME_COLUMN": "display_name",
		"RATE_LIMIT_RPM":             "200",
		"READ_TIMEOUT":               "45s",
	}

	clearEnvVars(allEnvVars)
	setEnvVars(envVars)
	defer clearEnvVars(allEnvVars)

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.Server.Host != "0.0.0.0" {
		t.Errorf("Expected host '0.0.0.0', got %s", config.Server.Host)
	}

	if config.Server.APIPrefix != "/v1" {
		t.Errorf("Expected API prefix '/v1', got %s", config.Server.APIPrefix)
	}

	if len(config.Server.AllowedOrigins) != 2 || config.Server.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("Expected two trimmed origins, got %v", config.Server.AllowedOrigins)
	}

	if config.Database.Driver != DriverPostgres {
		t.Errorf("Expected driver 'postgres', got %s", config.Database.Driver)
	}

	if config.Database.MaxOpenConns != 50 {
		t.Errorf("Expected max open conns 50, got %d", config.Database.MaxOpenConns)
	}

	if !config.Redis.Enabled || config.Redis.DB != 1 {
		t.Errorf("Expected Redis enabled on DB 1, got enabled=%v db=%d", config.Redis.Enabled, config.Redis.DB)
	}

	if config.Auth.AccessTokenTTL != 30*time.Minute {
		t.Errorf("Expected access token TTL 30m, got %v", config.Auth.AccessTokenTTL)
	}

	if config.Directory.Table != "profiles" || config.Directory.NameColumn != "display_name" {
		t.Errorf("Expected directory profiles.display_name, got %s.%s", config.Directory.Table, config.Directory.NameColumn)
	}

	if config.RateLimit.RequestsPerMin != 200 {
		t.Errorf("Expected requests per minute 200, got %d", config.RateLimit.RequestsPerMin)
	}

	if config.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Expected read timeout 45s, got %v", config.Server.ReadTimeout)
	}
}

func TestLoadConfig_UnsupportedDriver(t *testing.T) {
	clearEnvVars(allEnvVars)
	t.Setenv("DB_DRIVER", "mysql")

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestConfigValidation_EdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		hasError bool
		errorMsg string
	}{
		{
			name: "Production postgres with all required fields",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
				"DB_DRIVER":   "postgres",
				"DB_PASSWORD": "secure-password",
				"JWT_SECRET":  "secure-jwt-secret",
			},
		},
		{
			name: "Production postgres without password",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
				"DB_DRIVER":   "postgres",
				"JWT_SECRET":  "secure-jwt-secret",
			},
			hasError: true,
			errorMsg: "database password is required in production",
		},
		{
			name: "Production sqlite needs no password",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
				"JWT_SECRET":  "secure-jwt-secret",
			},
		},
		{
			name: "Production with default JWT secret",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
			},
			hasError: true,
			errorMsg: "JWT secret must be set in production",
		},
		{
			name: "Development with default JWT secret",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
		},
		{
			name: "Staging environment (not production)",
			envVars: map[string]string{
				"ENVIRONMENT": "staging",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars(allEnvVars)
			setEnvVars(tt.envVars)
			defer clearEnvVars(allEnvVars)

			config, err := LoadConfig()

			if tt.hasError {
				if err == nil {
					t.Errorf("Expected error, but got none")
				} else if err.Error() != tt.errorMsg {
					t.Errorf("Expected error '%s', got '%s'", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
			if config == nil {
				t.Error("Expected config to be loaded")
			}
		})
	}
}

func TestConfig_GetDatabaseDSN(t *testing.T) {
	config := &Config{
		Database: DatabaseConfig{
			Driver:   DriverPostgres,
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
			SSLMode:  "disable",
		},
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	if actual := config.GetDatabaseDSN(); actual != expected {
		t.Errorf("Expected DSN '%s', got '%s'", expected, actual)
	}

	config.Database.Driver = DriverSQLite
	config.Database.Path = "/tmp/todos.db"
	if actual := config.GetDatabaseDSN(); actual != "/tmp/todos.db" {
		t.Errorf("Expected sqlite path, got '%s'", actual)
	}
}

func TestConfig_Addrs(t *testing.T) {
	config := &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: "8080"},
		Redis:  RedisConfig{Host: "redis.local", Port: "6380"},
	}

	if got := config.GetServerAddr(); got != "0.0.0.0:8080" {
		t.Errorf("Expected server addr '0.0.0.0:8080', got '%s'", got)
	}
	if got := config.GetRedisAddr(); got != "redis.local:6380" {
		t.Errorf("Expected Redis addr 'redis.local:6380', got '%s'", got)
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		environment string
		expected    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		config := &Config{Server: ServerConfig{Environment: tt.environment}}
		if result := config.IsProduction(); result != tt.expected {
			t.Errorf("For environment '%s', expected IsProduction() = %v, got %v",
				tt.environment, tt.expected, result)
		}
	}
}

func TestGetEnvAsInt(t *testing.T) {
	key := "TEST_INT_VAR"
	os.Unsetenv(key)

	if result := getEnvAsInt(key, 42); result != 42 {
		t.Errorf("Expected default value 42, got %d", result)
	}

	t.Setenv(key, "100")
	if result := getEnvAsInt(key, 42); result != 100 {
		t.Errorf("Expected env value 100, got %d", result)
	}

	t.Setenv(key, "not-a-number")
	if result := getEnvAsInt(key, 42); result != 42 {
		t.Errorf("Expected default value 42 for invalid int, got %d", result)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	key := "TEST_BOOL_VAR"
	testCases := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"1", true},
		{"false", false},
		{"0", false},
		{"invalid", true},
	}

	for _, tc := range testCases {
		t.Setenv(key, tc.value)
		if result := getEnvAsBool(key, true); result != tc.expected {
			t.Errorf("For value '%s', expected %v, got %v", tc.value, tc.expected, result)
		}
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"
	os.Unsetenv(key)

	if result := getEnvAsDuration(key, 30*time.Second); result != 30*time.Second {
		t.Errorf("Expected default value 30s, got %v", result)
	}

	t.Setenv(key, "5m")
	if result := getEnvAsDuration(key, 30*time.Second); result != 5*time.Minute {
		t.Errorf("Expected env value 5m, got %v", result)
	}

	t.Setenv(key, "not-a-duration")
	if result := getEnvAsDuration(key, 30*time.Second); result != 30*time.Second {
		t.Errorf("Expected default value 30s for invalid duration, got %v", result)
	}
}

func TestGetEnvAsList(t *testing.T) {
	key := "TEST_LIST_VAR"
	t.Setenv(key, " , ,")
	if result := getEnvAsList(key, []string{"x"}); len(result) != 1 || result[0] != "x" {
		t.Errorf("Expected default for blank list, got %v", result)
	}

	t.Setenv(key, "a,b")
	if result := getEnvAsList(key, nil); len(result) != 2 {
		t.Errorf("Expected two entries, got %v", result)
	}
}

func BenchmarkLoadConfig(b *testing.B) {
	envVars := map[string]string{
		"HOST":        "0.0.0.0",
		"PORT":        "8080",
		"ENVIRONMENT": "production",
		"DB_PASSWORD": "password",
		"JWT_SECRET":  "secret",
	}
	setEnvVars(envVars)
	defer clearEnvVars(allEnvVars)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := LoadConfig(); err != nil {
			b.Fatalf("Failed to load config: %v", err)
		}
	}
}
