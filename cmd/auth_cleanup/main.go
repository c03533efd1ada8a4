package main

import (
	"context"
	"log"
	"os"

	"authhub/internal/database"
	"authhub/internal/repository"
)

// Deletes expired sessions and spent verification tokens. Meant to run from
// cron; the service itself never needs these rows again.
func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx := context.Background()

	sessions, err := repository.NewSessionRepository(db).DeleteExpired(ctx)
	if err != nil {
		log.Fatalf("cleanup sessions failed: %v", err)
	}

	tokens, err := repository.NewVerificationTokenRepository(db).DeleteExpiredOrUsed(ctx)
	if err != nil {
		log.Fatalf("cleanup verification_tokens failed: %v", err)
	}

	log.Printf("auth cleanup completed: sessions=%d verification_tokens=%d", sessions, tokens)
}
