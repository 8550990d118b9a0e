// cmd/adduser/main.go
// Creates or updates a login in the database.
//
// Usage:
//
//	go run ./cmd/adduser -username ana -password testing -tenant <uuid> -role trainer
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/padraicbc/trainagenda/config"
	bundb "github.com/padraicbc/trainagenda/db"
	"github.com/padraicbc/trainagenda/handlers"
	"github.com/padraicbc/trainagenda/models"
	"github.com/padraicbc/trainagenda/scheduling"
)

func main() {
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	tenant := flag.String("tenant", "", "tenant uuid (required)")
	role := flag.String("role", scheduling.RoleTrainer, "owner, admin or trainer")
	flag.Parse()

	if *username == "" || *password == "" || *tenant == "" {
		log.Fatal("-username, -password and -tenant are required")
	}
	if _, err := uuid.Parse(*tenant); err != nil {
		log.Fatal("-tenant must be a uuid:", err)
	}
	switch *role {
	case scheduling.RoleOwner, scheduling.RoleAdmin, scheduling.RoleTrainer:
	default:
		log.Fatalf("unknown role %q", *role)
	}

	hash, err := handlers.HashPassword(*username, *password)
	if err != nil {
		log.Fatal("hash password:", err)
	}

	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	if err := bundb.CreateTables(context.Background(), db); err != nil {
		log.Fatal("create tables:", err)
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Username: *username,
		Password: hash,
		Role:     *role,
		TenantID: *tenant,
	}
	if err := bundb.NewStore(db).SaveUser(context.Background(), user); err != nil {
		log.Fatal("save user:", err)
	}

	fmt.Printf("user %q saved as %s\n", *username, *role)
}
