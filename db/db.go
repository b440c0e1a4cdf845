package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/pettopia/pettopia-server/cmd/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNoDatabaseURL = errors.New("DB_URL is not set")

func NewPSQLStorage(connString string) (*gorm.DB, error) {
	if connString == "" {
		return nil, ErrNoDatabaseURL
	}

	db, err := gorm.Open(postgres.Open(connString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Tables lists every model owned by this service, in migration order.
func Tables() []interface{} {
	return []interface{}{
		&models.Pet{},
		&models.FavoritePost{},
		&models.ViewedPost{},
	}
}

func Migrate(db *gorm.DB) error {
	for _, model := range Tables() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("error migrating %T: %w", model, err)
		}
	}
	return nil
}
