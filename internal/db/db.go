package db

import (
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"veloxhub/internal/models"
)

func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	sqlDB, _ := gdb.DB()
	if err := sqlDB.Ping(); err != nil {
		log.Fatal().Err(err).Msg("database ping failed")
	}

	log.Info().Msg("database connected")
	return gdb
}

// Migrate runs gorm auto-migration for every model.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrgMember{},
		&models.MemberAppAccess{},
		&models.Group{},
		&models.GroupMember{},
		&models.GroupAppAccess{},
		&models.Entity{},
		&models.Invitation{},
		&models.Subscription{},
		&models.SSOToken{},
		&models.AuditLog{},
	)
}
