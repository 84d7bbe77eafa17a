package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Email    EmailConfig
	Security SecurityConfig
	Workout  WorkoutConfig
	AppEnv   string // Окружение приложения: development, production, etc.
}

// ServerConfig хранит конфигурацию сервера
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig хранит конфигурацию базы данных
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int           // Максимальное количество открытых соединений
	MaxIdleConns    int           // Максимальное количество неактивных соединений
	ConnMaxLifetime time.Duration // Максимальное время жизни соединения
	ConnMaxIdleTime time.Duration // Максимальное время простоя соединения
}

// JWTConfig хранит настройки выпуска и проверки токенов сессии.
type JWTConfig struct {
	Issuer        string
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// CORSConfig хранит настройки CORS.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// EmailConfig хранит настройки SMTP для отправки писем.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
}

// SecurityConfig хранит политику безопасности аккаунтов:
// блокировку входа, сброс пароля и подтверждение email.
type SecurityConfig struct {
	MaxLoginAttempts        int           // Порог неудачных попыток до блокировки
	LockoutWindow           time.Duration // Окно блокировки от последней неудачной попытки
	ResetTokenTTL           time.Duration // Время жизни токена сброса пароля
	MinPasswordEntropy      float64       // Минимальная энтропия пароля (бит)
	VerificationTTL         time.Duration // Время жизни кода подтверждения email
	VerificationMaxAttempts int           // Лимит неверных вводов кода подтверждения
}

// WorkoutConfig хранит политику журнала тренировок.
type WorkoutConfig struct {
	// AllowNegativeWeightLost разрешает отрицательный total_weight_lost
	// (обратный набор веса). Схема источника знак не ограничивает,
	// поэтому поведение вынесено в конфигурацию.
	AllowNegativeWeightLost bool
}

// DSN возвращает строку подключения к базе данных
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// Address возвращает адрес сервера (host:port)
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// Загружаем .env файл (если существует)
	// В production переменные окружения должны быть установлены напрямую
	_ = godotenv.Load()

	cfg := &Config{}

	// Загружаем конфигурацию сервера
	cfg.Server.Host = getEnv("SERVER_HOST", "localhost")
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")

	// Загружаем конфигурацию базы данных
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.DBName = getEnv("DB_NAME", "personafit")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	// Загружаем настройки пула соединений
	cfg.Database.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", 25)
	cfg.Database.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", 5)
	cfg.Database.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	cfg.Database.ConnMaxIdleTime = getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute)

	// Загружаем настройки JWT
	cfg.JWT.Issuer = getEnv("JWT_ISSUER", "personafit")
	cfg.JWT.AccessSecret = getEnv("JWT_ACCESS_SECRET", "")
	cfg.JWT.RefreshSecret = getEnv("JWT_REFRESH_SECRET", "")
	cfg.JWT.AccessTTL = getEnvAsDuration("JWT_ACCESS_TTL", 15*time.Minute)
	cfg.JWT.RefreshTTL = getEnvAsDuration("JWT_REFRESH_TTL", 7*24*time.Hour)

	// Загружаем настройки CORS
	cfg.CORS.AllowedOrigins = getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	cfg.CORS.AllowedMethods = getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	cfg.CORS.AllowedHeaders = getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Authorization"})
	cfg.CORS.AllowCredentials = getEnvAsBool("CORS_ALLOW_CREDENTIALS", true)
	cfg.CORS.MaxAge = getEnvAsDuration("CORS_MAX_AGE", 12*time.Hour)

	// Загружаем настройки SMTP
	cfg.Email.SMTPHost = getEnv("SMTP_HOST", "localhost")
	cfg.Email.SMTPPort = getEnvAsInt("SMTP_PORT", 587)
	cfg.Email.SMTPUsername = getEnv("SMTP_USERNAME", "")
	cfg.Email.SMTPPassword = getEnv("SMTP_PASSWORD", "")
	cfg.Email.FromEmail = getEnv("SMTP_FROM_EMAIL", "no-reply@personafit.local")

	// Загружаем политику безопасности аккаунтов
	cfg.Security.MaxLoginAttempts = getEnvAsInt("AUTH_MAX_LOGIN_ATTEMPTS", 5)
	cfg.Security.LockoutWindow = getEnvAsDuration("AUTH_LOCKOUT_WINDOW", 15*time.Minute)
	cfg.Security.ResetTokenTTL = getEnvAsDuration("AUTH_RESET_TOKEN_TTL", 30*time.Minute)
	cfg.Security.MinPasswordEntropy = getEnvAsFloat("AUTH_MIN_PASSWORD_ENTROPY", 50)
	cfg.Security.VerificationTTL = getEnvAsDuration("AUTH_VERIFICATION_TTL", 15*time.Minute)
	cfg.Security.VerificationMaxAttempts = getEnvAsInt("AUTH_VERIFICATION_MAX_ATTEMPTS", 5)

	// Загружаем политику журнала тренировок
	cfg.Workout.AllowNegativeWeightLost = getEnvAsBool("WORKOUT_ALLOW_NEGATIVE_WEIGHT_LOST", true)

	// Загружаем окружение приложения
	cfg.AppEnv = getEnv("APP_ENV", "development")

	// Валидируем конфигурацию
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return cfg, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("SERVER_HOST не может быть пустым")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT не может быть пустым")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST не может быть пустым")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER не может быть пустым")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("DB_NAME не может быть пустым")
	}
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET не может быть пустым")
	}
	if c.JWT.RefreshSecret == "" {
		return fmt.Errorf("JWT_REFRESH_SECRET не может быть пустым")
	}
	if c.Security.MaxLoginAttempts <= 0 {
		return fmt.Errorf("AUTH_MAX_LOGIN_ATTEMPTS должен быть положительным")
	}
	if c.Security.LockoutWindow <= 0 {
		return fmt.Errorf("AUTH_LOCKOUT_WINDOW должен быть положительным")
	}
	if c.Security.ResetTokenTTL <= 0 {
		return fmt.Errorf("AUTH_RESET_TOKEN_TTL должен быть положительным")
	}
	return nil
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt получает переменную окружения как int или возвращает значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvAsFloat получает переменную окружения как float64 или возвращает значение по умолчанию
func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvAsBool получает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

// getEnvAsDuration получает переменную окружения как time.Duration или возвращает значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// getEnvAsSlice получает переменную окружения как список строк через запятую
// или возвращает значение по умолчанию
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
