package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"userhandler/internal/auth"
	"userhandler/internal/config"
	"userhandler/internal/db"
	apperrors "userhandler/internal/errors"
	"userhandler/internal/model"
	"userhandler/internal/repository"
	"userhandler/internal/service"
)

// AdminSeed is the administrator account read from the environment.
type AdminSeed struct {
	Username string
	Email    string
	Password string
	Name     string
	Birthday string
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	seed, err := adminFromEnv()
	if err != nil {
		log.Fatalf("Invalid seed configuration: %v", err)
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	userRepo := repository.NewUserRepository(gormDB)
	userService := service.NewUserService(userRepo, auth.NewPasswordHasher(cfg.BcryptCost), nil)

	created, err := seedAdmin(context.Background(), userService, seed)
	if err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}
	if created == nil {
		log.Printf("Admin %s already exists, nothing to do", seed.Email)
		return
	}
	log.Printf("Seed completed successfully! Admin id=%d email=%s", created.ID, created.Email)
}

func adminFromEnv() (AdminSeed, error) {
	seed := AdminSeed{
		Username: getEnv("ADMIN_USERNAME", "admin"),
		Email:    os.Getenv("ADMIN_EMAIL"),
		Password: os.Getenv("ADMIN_PASSWORD"),
		Name:     getEnv("ADMIN_NAME", "Administrator"),
		Birthday: getEnv("ADMIN_BIRTHDAY", "1970-01-01"),
	}
	if seed.Email == "" || seed.Password == "" {
		return seed, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	return seed, nil
}

// seedAdmin creates the administrator, returning nil when the email or username is taken.
func seedAdmin(ctx context.Context, svc service.UserService, seed AdminSeed) (*model.UserView, error) {
	view, err := svc.CreateUser(ctx, service.CreateUserInput{
		Name:     seed.Name,
		Email:    seed.Email,
		Username: seed.Username,
		Password: seed.Password,
		Birthday: seed.Birthday,
		Role:     model.RoleAdmin,
	})
	if errors.Is(err, apperrors.ErrDuplicateEmail) || errors.Is(err, apperrors.ErrDuplicateUsername) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return view, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
