package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"tradepost/internal/config"
	"tradepost/internal/http/handlers"
	applog "tradepost/internal/log"
	"tradepost/internal/market"
	"tradepost/internal/session"
	"tradepost/internal/store"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := store.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Durable stores + startup snapshot
	accountStore := store.NewAccountStore(db)
	itemStore := store.NewItemStore(db)
	purchaseStore := store.NewPurchaseStore(db)
	userStore := store.NewUserStore(db)

	accounts, err := accountStore.All()
	if err != nil {
		log.Fatal(err)
	}
	items, err := itemStore.All()
	if err != nil {
		log.Fatal(err)
	}
	purchases, err := purchaseStore.All()
	if err != nil {
		log.Fatal(err)
	}

	// Core wiring
	ledger := market.NewLedger(accounts, accountStore)
	catalog := market.NewCatalog(items, itemStore)
	journal := market.NewJournal(purchases, purchaseStore)
	mkt := market.NewMarket(ledger, catalog, journal, userStore)

	// Session protocol server
	srv := &session.Server{
		Addr:   cfg.ListenAddr,
		Auth:   &session.Auth{Users: userStore},
		Market: mkt,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Fatal(err)
		}
	}()

	// Ops surface
	engine := html.New("./web/templates", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error("", "server.error", err, map[string]any{"path": c.Path()})
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Something went wrong. Please try again.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Something went wrong. Please try again.")
			}
			return nil
		},
	})

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))

	deps := handlers.NewDeps(mkt)

	api := app.Group("/api/v1")
	api.Get("/catalog", deps.MarketHandler.Catalog)
	api.Get("/sellers/top", deps.MarketHandler.TopSellers)
	api.Get("/accounts/:id/balance", deps.MarketHandler.Balance)

	app.Get("/admin", deps.AdminHandler.Dashboard)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	log.Fatal(app.Listen(cfg.HTTPAddr))
}
