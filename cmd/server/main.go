package main // Entry point of the scheduler service

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/event-scheduler/internal/config"
	"github.com/iliyamo/event-scheduler/internal/event"
	"github.com/iliyamo/event-scheduler/internal/handler"
	"github.com/iliyamo/event-scheduler/internal/middleware"
	"github.com/iliyamo/event-scheduler/internal/model"
	"github.com/iliyamo/event-scheduler/internal/remote"
	"github.com/iliyamo/event-scheduler/internal/router"
	"github.com/iliyamo/event-scheduler/internal/scheduler"
	"github.com/iliyamo/event-scheduler/internal/store"
	"github.com/iliyamo/event-scheduler/internal/syncer"
	"github.com/iliyamo/event-scheduler/internal/timegrid"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments use the environment

	cfg := config.Load()
	cacheCfg := config.LoadCacheConfig()
	limitCfg := config.LoadRateLimitConfig()
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, cache and rate limiting disabled")
	}

	eventStart, err := remote.ParseTime(cfg.EventStart)
	if err != nil {
		log.Fatalf("invalid EVENT_START_TIME: %v", err)
	}
	eventEnd, err := remote.ParseTime(cfg.EventEnd)
	if err != nil {
		log.Fatalf("invalid EVENT_END_TIME: %v", err)
	}
	mainEvent := model.Event{ID: cfg.EventID, StartTime: eventStart, EndTime: eventEnd}

	st := store.New()
	bus := event.NewBus()
	grid := timegrid.New(cfg.GridUnitMinutes, cfg.GridUnitPx)
	eng := scheduler.New(scheduler.Options{
		Grid:            grid,
		DefaultDuration: cfg.DefaultDurationMin,
		ReadOnly:        cfg.ReadOnly,
	}, mainEvent, st, bus)

	client := remote.NewClient(cfg.AuthorityURL, cfg.EventID)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := eng.Load(ctx, client); err != nil {
		log.Fatalf("loading schedule from authority: %v", err)
	}
	log.Printf("loaded %d days, %d microlocations", len(eng.Days()), len(st.Microlocations()))

	co := syncer.New(client, bus)
	co.Start()

	// Committed edits also go to the broker for audit consumers.
	event.ForwardToBroker(bus)
	go func() {
		if err := event.StartChangeConsumer(); err != nil {
			log.Printf("change consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	view := middleware.NewResponseCache(cacheCfg, rdb)
	limit := middleware.NewTokenBucket(limitCfg, rdb)

	auth := handler.NewAuthHandler(cfg)
	sched := handler.NewScheduleHandler(cfg, grid, eng, st, rdb, cacheCfg.Prefix)
	micro := handler.NewMicrolocationHandler(client, eng)
	sync := handler.NewSyncHandler(co)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, auth, cfg.JWTSecret)
	router.RegisterSchedule(e, sched, micro, sync, cfg.JWTSecret, view, limit)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, read_only=%t)", addr, cfg.Env, cfg.ReadOnly)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
