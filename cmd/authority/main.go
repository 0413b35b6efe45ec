package main // Entry point of the reference authority service

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-scheduler/internal/authority"
	"github.com/iliyamo/event-scheduler/internal/config"
	"github.com/iliyamo/event-scheduler/internal/database"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadAuthority()
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	h := authority.NewHandler(authority.NewMicrolocationRepo(db), authority.NewSessionRepo(db))

	e := echo.New()
	h.Register(e)

	addr := ":" + cfg.Port
	log.Printf("authority listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
