package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"personafit/internal/config"
)

// Значения по умолчанию для пула соединений
const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 10 * time.Minute
)

// DB представляет подключение к базе данных
type DB struct {
	*gorm.DB
}

// NewConnection создает новое подключение к базе данных.
// Принимает конфигурацию базы данных и окружение приложения для настройки логирования.
// Возвращает инициализированное подключение или ошибку в случае неудачи.
func NewConnection(cfg *config.DatabaseConfig, appEnv string) (*DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("конфигурация базы данных не может быть nil")
	}

	log.Println("Инициализация подключения к базе данных...")

	// В development режиме включаем подробное логирование GORM
	gormLogger := logger.Default
	if strings.ToLower(appEnv) == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения sql.DB: %w", err)
	}

	// Настраиваем пул соединений: значения из конфига, иначе значения по умолчанию
	maxOpenConns := cfg.MaxOpenConns
	if maxOpenConns == 0 {
		maxOpenConns = defaultMaxOpenConns
	}
	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = defaultMaxIdleConns
	}
	connMaxLifetime := cfg.ConnMaxLifetime
	if connMaxLifetime == 0 {
		connMaxLifetime = defaultConnMaxLifetime
	}
	connMaxIdleTime := cfg.ConnMaxIdleTime
	if connMaxIdleTime == 0 {
		connMaxIdleTime = defaultConnMaxIdleTime
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ошибка проверки подключения к базе данных: %w", err)
	}

	log.Println("Подключение к базе данных установлено успешно")

	return &DB{DB: db}, nil
}

// Close закрывает подключение к базе данных и освобождает ресурсы.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("ошибка получения sql.DB для закрытия: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия подключения к базе данных: %w", err)
	}

	log.Println("Подключение к базе данных закрыто")
	return nil
}

// Ping проверяет доступность базы данных.
// Используется для health checks.
func (db *DB) Ping() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("ошибка получения sql.DB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("ошибка ping базы данных: %w", err)
	}

	return nil
}
