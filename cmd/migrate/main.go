package main

import (
	"fmt"
	"log"

	"github.com/you/tradeauth/internal/config"
	"github.com/you/tradeauth/internal/infrastructure/auth"
	"github.com/you/tradeauth/internal/infrastructure/database"
	"github.com/you/tradeauth/internal/infrastructure/repositories"
	"github.com/you/tradeauth/internal/logging"
)

// migrate creates the identity and casbin tables, seeds the default route
// policies and prints row counts for each identity store
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Open(cfg.DSN, database.Options{
		Debug:  cfg.DBDebug,
		Logger: logging.New(cfg.LogLevel),
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	fmt.Println("identity tables migrated")

	cas, err := auth.NewCasbinService(db, cfg.CasbinModelPath)
	if err != nil {
		log.Fatalf("casbin: %v", err)
	}
	seeded, err := cas.SeedDefaults()
	if err != nil {
		log.Fatalf("casbin: %v", err)
	}
	policies, err := cas.E.GetPolicy()
	if err != nil {
		log.Fatalf("casbin: %v", err)
	}
	fmt.Printf("casbin policies: %d (seeded: %t)\n", len(policies), seeded)

	for _, model := range repositories.Models() {
		var count int64
		if err := db.Model(model).Count(&count).Error; err != nil {
			log.Fatalf("count: %v", err)
		}
		name := fmt.Sprintf("%T", model)
		if t, ok := model.(interface{ TableName() string }); ok {
			name = t.TableName()
		}
		fmt.Printf("%s: %d rows\n", name, count)
	}
}
