package main

import (
	"log"
	"os"
	"time"

	"authhub/internal/database"
	"authhub/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"
)

// Seeds the bootstrap admin principal. Safe to rerun: the insert is a no-op
// when the email already exists.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "authhub.db"
	}

	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(
		&domain.Principal{},
		&domain.Session{},
		&domain.VerificationToken{},
	); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("hash failed:", err)
	}

	now := time.Now().UTC()
	admin := domain.Principal{
		Email:           email,
		PasswordHash:    string(hash),
		Name:            "Administrator",
		Role:            domain.RoleAdmin,
		EmailVerified:   true,
		EmailVerifiedAt: &now,
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&admin)
	if res.Error != nil {
		log.Fatal("seed failed:", res.Error)
	}
	if res.RowsAffected == 0 {
		log.Printf("admin %s already exists, nothing to do", email)
		return
	}

	log.Printf("seeded admin principal id=%d email=%s", admin.ID, email)
}
