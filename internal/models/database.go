package models

import (
	"errors"
	"fmt"

	"github.com/huangang/caseeval/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to the configured database without touching the global handle.
func Open(cfg *config.DatabaseConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

func InitDB(cfg *config.DatabaseConfig) error {
	db, err := Open(cfg, logger.Warn)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

func AutoMigrate() error {
	return Migrate(DB)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Case{},
		&CaseEvaluation{},
		&EvaluationOption{},
		&EvaluationSummary{},
		&SystemConfig{},
		&SystemLog{},
		&SchedulerLock{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

func SeedDefaultData() error {
	return Seed(DB)
}

// Seed inserts the default evaluation options and system configs that are
// missing. Existing rows are never overwritten.
func Seed(db *gorm.DB) error {
	var optionCount int64
	if err := db.Model(&EvaluationOption{}).Count(&optionCount).Error; err != nil {
		return err
	}
	if optionCount == 0 {
		options := DefaultEvaluationOptions()
		if err := db.Create(&options).Error; err != nil {
			return err
		}
	}

	defaultConfigs := []SystemConfig{
		{Key: "log_retention_days", Value: "30", Type: "int", Group: "system", Label: "System Log Retention Days"},
		{Key: "evaluation_summary_enabled", Value: "true", Type: "bool", Group: "evaluation", Label: "Generate Daily Evaluation Summary"},
		{Key: "evaluation_summary_holiday_country", Value: "VN", Type: "string", Group: "evaluation", Label: "Skip Summaries On Holidays Of"},
		{Key: "ldap_enabled", Value: "false", Type: "bool", Group: "ldap", Label: "Enable LDAP Authentication"},
	}

	for _, cfg := range defaultConfigs {
		var existing SystemConfig
		err := db.Where("config_key = ?", cfg.Key).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&cfg).Error; err != nil {
			return err
		}
	}

	return nil
}
