package database

import (
	"fmt"

	"ledger/config"
	"ledger/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// defaultCategories are created on an empty categories table, in this order.
// The first one is the oldest category and survives a delete-everything request.
var defaultCategories = []models.Category{
	{Type: "General", Color: models.DefaultCategoryColor},
	{Type: "Food", Color: "#ef4444"},
	{Type: "Transport", Color: "#3b82f6"},
	{Type: "Housing", Color: "#14b8a6"},
	{Type: "Leisure", Color: "#ec4899"},
}

// DSN builds the MySQL connection string.
func DSN(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=UTC",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
	)
}

// Init opens the connection, migrates the schema and seeds default categories.
func Init(cfg *config.Config) error {
	logMode := logger.Info
	if cfg.Server.Mode == "release" {
		logMode = logger.Warn
	}

	var err error
	DB, err = gorm.Open(mysql.Open(DSN(&cfg.Database)), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if err := DB.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Transaction{},
		&models.Group{},
		&models.GroupMember{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	if err := SeedCategories(DB); err != nil {
		return err
	}

	logrus.Info("database initialized")
	return nil
}

// SeedCategories inserts the default categories when none exist.
func SeedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	cats := make([]models.Category, len(defaultCategories))
	copy(cats, defaultCategories)
	if err := db.Create(&cats).Error; err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	logrus.WithField("count", len(cats)).Info("seeded default categories")
	return nil
}

// Close releases the connection pool.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
