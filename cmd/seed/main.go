package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"eventreg/internal/shared/config"
	"eventreg/internal/shared/database"
	"eventreg/internal/users"
	"eventreg/pkg/cache"
	"eventreg/pkg/logger"
)

type Seeder struct {
	db    *database.DB
	users users.Repository
	cache cache.Service
}

func main() {
	fmt.Println("🌱 Starting event registration seeder...")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if !cfg.IsPersistent() {
		log.Fatalf("Seeding requires STORAGE_MODE=%s, got %q", config.StoragePostgres, cfg.StorageMode)
	}
	db, err := database.InitDB(cfg, logger.New())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db, users: users.NewRepository(db.GetPostgreSQL())}
	if client := db.GetRedisClient(); client != nil {
		seeder.cache = cache.NewService(client)
	}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	if err := seeder.PurgeDirectoryCache(context.Background()); err != nil {
		log.Fatalf("Failed to purge users cache: %v", err)
	}

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedUsers(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")
}

// CleanDatabase empties both the registrations and the pre-existing users
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"event_registrations",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

// PurgeDirectoryCache forgets cached /verify_email answers for the truncated users
func (s *Seeder) PurgeDirectoryCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	deleted, err := users.PurgeDirectoryCache(ctx, s.cache)
	if err != nil {
		return err
	}
	fmt.Printf("  Purged %d cached users\n", deleted)
	return nil
}

// SeedUsers loads the members that /verify_email reports as already known
func (s *Seeder) SeedUsers(ctx context.Context) error {
	fmt.Println("  👤 Seeding users...")

	seed := []users.User{
		{FirstName: "Admin", LastName: "User", Email: "admin@eventreg.dev", Role: users.RoleAdmin},
		{FirstName: "Priya", LastName: "Nair", Email: "priya.nair@eventreg.dev", Role: users.RoleMember},
		{FirstName: "Tomás", LastName: "Ortega", Email: "tomas.ortega@eventreg.dev", Role: users.RoleMember},
		{FirstName: "Jun", LastName: "Park", Email: "jun.park@example.com", Role: users.RoleUser},
		{FirstName: "Amara", LastName: "Okafor", Email: "amara.okafor@example.com", Role: users.RoleUser},
	}

	for i := range seed {
		if err := s.users.Create(ctx, &seed[i]); err != nil {
			return fmt.Errorf("failed to create user %s: %w", seed[i].Email, err)
		}
		fmt.Printf("    ✅ %s (%s)\n", seed[i].Email, seed[i].Role)
	}

	return nil
}
