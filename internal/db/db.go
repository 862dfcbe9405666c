package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/conversation"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/models"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/prefs"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/upload"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&conversation.Conversation{},
		&conversation.Message{},
		&prefs.Record{},
		&upload.Document{},
		&upload.Job{},
	)
}
