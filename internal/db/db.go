package db

import (
	"log"
	"os"

	"alterearth/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=alterearth port=5432 sslmode=disable TimeZone=UTC"
	}

	var err error
	// TranslateError turns driver unique violations into gorm.ErrDuplicatedKey,
	// which the voting service relies on to recover double-submits.
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")
}

// Migrate creates/updates the five core relations plus the per-kind post
// detail tables and the karma audit log.
func Migrate(g *gorm.DB) error {
	return g.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.ArticleDetail{},
		&models.SubmissionDetail{},
		&models.Comment{},
		&models.Vote{},
		&models.KarmaLog{},
	)
}
