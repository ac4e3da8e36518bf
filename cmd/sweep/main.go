// Command sweep runs the unused-image reconciliation once and prints the report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"avatio/internal/bootstrap"
	"avatio/internal/config"
	"avatio/internal/repository"
	"avatio/internal/service"
	"avatio/internal/storage"
)

func main() {
	dryRun := flag.Bool("dry-run", true, "List deletion candidates without deleting")
	timeout := flag.Duration("timeout", 10*time.Minute, "Abort the run after this long")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{Tracing: true, ServiceName: "avatio-sweep"})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close(context.Background())

	sweep := service.NewSweepService(
		repository.NewImageReferenceRepository(rt.DB),
		rt.Store,
		storage.NewURLResolver(cfg.StoragePublicURL),
		cfg.SweepGraceWindow,
	)
	report, err := sweep.Run(ctx, service.SweepOptions{DryRun: *dryRun})
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	if len(report.Failed) > 0 {
		os.Exit(1)
	}
}
