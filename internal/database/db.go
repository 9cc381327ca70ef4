package database

import (
	"brigade/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL dialect
	_ "github.com/jinzhu/gorm/dialects/sqlite"   // SQLite dialect
)

var DB *gorm.DB

// InitDB initializes the database connection. Driver is "sqlite3" or
// "postgres"; the DSN format follows the driver.
func InitDB(driver, dsn string) error {
	var err error
	DB, err = gorm.Open(driver, dsn)
	if err != nil {
		return err
	}
	return nil
}

// Migrate creates or updates the schema for all persisted records.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.MenuItem{},
		&models.Table{},
		&models.Order{},
		&models.OrderItem{},
	).Error
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// CloseDB closes the database connection
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
