package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/studymesh/studymesh-backend/internal/data/db"
	"github.com/studymesh/studymesh-backend/internal/platform/envutil"
	"github.com/studymesh/studymesh-backend/internal/platform/logger"
	"github.com/studymesh/studymesh-backend/internal/realtime/bus"
)

type App struct {
	Log        *logger.Logger
	DB         *gorm.DB
	Repos      Repos
	Aggregates Aggregates
	Bus        bus.Bus
}

func New() (*App, error) {
	logMode := envutil.Str("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	// The lifecycle bus is optional; without REDIS_ADDR transitions only
	// reach the structured log.
	var b bus.Bus
	if envutil.Str("REDIS_ADDR", "") != "" {
		b, err = bus.NewRedisBus(log)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init lifecycle bus: %w", err)
		}
	}

	reposet := wireRepos(theDB, log)
	aggset := wireAggregates(theDB, log, reposet, b)

	return &App{
		Log:        log,
		DB:         theDB,
		Repos:      reposet,
		Aggregates: aggset,
		Bus:        b,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Bus != nil {
		_ = a.Bus.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
