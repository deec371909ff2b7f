package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/inboxpurge/inboxpurge/interfaces"
	"github.com/inboxpurge/inboxpurge/internal/config"
	"github.com/inboxpurge/inboxpurge/internal/models"
)

type Repositories struct {
	RunRepository            interfaces.RunRepository
	SenderRepository         interfaces.SenderRepository
	ActionRepository         interfaces.ActionRepository
	WhitelistRepository      interfaces.WhitelistRepository
	ClassificationRepository interfaces.ClassificationRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		RunRepository:            NewRunRepository(db),
		SenderRepository:         NewSenderRepository(db),
		ActionRepository:         NewActionRepository(db),
		WhitelistRepository:      NewWhitelistRepository(db),
		ClassificationRepository: NewClassificationRepository(db),
	}
}

func MigrateDB(dbConfig *config.DatabaseConfig, gormDB *gorm.DB) error {
	db, err := gormDB.DB()
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(5)

	err = gormDB.AutoMigrate(
		&models.CleanupRun{},
		&models.Sender{},
		&models.CleanupAction{},
		&models.WhitelistDomain{},
		&models.EmailClassification{},
	)

	db.Close()

	db, _ = gormDB.DB()
	db.SetMaxIdleConns(dbConfig.MaxIdleConn)
	db.SetMaxOpenConns(dbConfig.MaxConn)
	db.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
