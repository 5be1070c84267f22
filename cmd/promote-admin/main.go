package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dimitrije/spacebook-api/internal/config"
	"github.com/dimitrije/spacebook-api/internal/database"
	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/dimitrije/spacebook-api/internal/services"
)

func main() {
	demote := flag.Bool("demote", false, "revoke the admin role instead of granting it")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Println("Usage: promote-admin [-demote] <email>")
		os.Exit(1)
	}

	email := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	role := models.RoleAdmin
	if *demote {
		role = models.RoleUser
	}

	userService := services.NewUserService(db)
	if err := userService.SetRole(ctx, email, role); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			log.Fatalf("No user found with email: %s", email)
		}
		log.Fatalf("Failed to update user: %v", err)
	}

	fmt.Printf("Successfully set role of %s to %s\n", email, role)
	fmt.Println("The new role applies from the next token refresh.")
}
