package main

import (
	"context"
	"flag"
	"log"

	"github.com/pressly/goose/v3"

	"github.com/ksndmc/flow-api/migrations"
	"github.com/ksndmc/flow-api/pkg/config"
	"github.com/ksndmc/flow-api/pkg/database"
)

func main() {
	command := flag.String("command", "up", "goose command: up, down, status, version")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("goose: %v", err)
	}

	ctx := context.Background()
	if err := goose.RunContext(ctx, *command, db.DB, "."); err != nil {
		log.Fatalf("goose %s: %v", *command, err)
	}
	log.Printf("goose %s: done", *command)
}
