// One-shot runner for the scheduled jobs, for manual execution and
// container cron setups where the in-process scheduler is disabled.
package main

import (
	"database/sql"
	"flag"
	"log"

	_ "github.com/lib/pq"

	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/jobs"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository/postgres"
	"rentdesk-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	jobName := flag.String("job", "nightly", "Job to run: nightly | mark-return-due")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	store := postgres.NewStore(db)
	clock := service.NewClock()
	engine := service.NewRentalEngine(store, clock)
	deals := service.NewDealService(store, engine)
	runner := jobs.NewJobRunner(store, deals, clock, cfg)

	switch *jobName {
	case "nightly":
		runner.RunAllNightlyJobs()
	case "mark-return-due":
		runner.MarkReturnDue()
	default:
		log.Fatalf("Unknown job: %s", *jobName)
	}
}
