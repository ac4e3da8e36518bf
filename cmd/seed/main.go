// Command seed populates the database with demo users, items and setups.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"avatio/internal/bootstrap"
	"avatio/internal/config"
	"avatio/internal/middleware"
	"avatio/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numItems := flag.Int("items", 120, "Number of catalog items to create")
	numSetups := flag.Int("setups", 200, "Number of setups to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	admin := flag.String("admin", "", "Handle of an account to create or promote to admin")
	dryRun := flag.Bool("dry-run", false, "Generate entities without writing them")
	randSeed := flag.Int64("seed", 0, "Random seed (0 uses the clock)")
	printToken := flag.Bool("print-admin-token", false, "Print a 24h session token for -admin")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close(ctx)

	sum, err := seed.Seed(ctx, rt.DB, seed.Options{
		NumUsers:    *numUsers,
		NumItems:    *numItems,
		NumSetups:   *numSetups,
		ShouldClean: *shouldClean,
		AdminHandle: *admin,
		Factory:     seed.FactoryOptions{DryRun: *dryRun, Seed: *randSeed},
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	middleware.Logger.Info("seed finished", "users", sum.Users, "items", sum.Items, "setups", sum.Setups)

	if *printToken && sum.AdminID != 0 {
		token, err := middleware.IssueSessionToken(cfg.JWTSecret, sum.AdminID, 24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		log.Printf("admin session token: %s", token)
	}
}
