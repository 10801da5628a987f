// README: Entry point; loads config, wires services, starts HTTP server and background workers.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"foodbridge/internal/config"
	"foodbridge/internal/geocode"
	httptransport "foodbridge/internal/http"
	"foodbridge/internal/http/handlers"
	"foodbridge/internal/infra"
	"foodbridge/internal/modules/delivery"
	"foodbridge/internal/modules/inventory"
	"foodbridge/internal/modules/matching"
	"foodbridge/internal/modules/search"
	"foodbridge/internal/modules/sweeper"
	"foodbridge/internal/modules/user"
	"foodbridge/internal/notify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		logrus.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var geocoder inventory.Geocoder
	if cfg.MapsAPIKey != "" {
		g, err := geocode.New(cfg.MapsAPIKey)
		if err != nil {
			logrus.Fatalf("geocoder init: %v", err)
		}
		geocoder = g
	}

	mailer := notify.NewBreakerMailer(notify.NewSMTPMailer(cfg.SMTP))

	userStore := user.NewStore(dbPool)
	listingStore := inventory.NewStore(dbPool)
	lineItemStore := delivery.NewStore(dbPool)

	searchSvc := search.NewService(search.NewRedisIndex(redisClient), listingStore)
	dispatcher := matching.NewDispatcher(userStore, mailer, cfg.NotifyRadiusKm)

	listingSvc := inventory.NewService(listingStore, geocoder, dispatcher)
	deliverySvc := delivery.NewService(lineItemStore, listingStore, nil)
	sweepSvc := sweeper.NewService(listingStore, lineItemStore, searchSvc, cfg.SweepInterval)
	syncWorker := inventory.NewSyncWorker(listingStore, searchSvc, cfg.OutboxInterval)

	router := httptransport.NewRouter(httptransport.Handlers{
		Listings: handlers.NewListingHandler(listingSvc),
		Pickups:  handlers.NewPickupHandler(deliverySvc),
		Searches: handlers.NewSearchHandler(searchSvc),
		Admin:    handlers.NewAdminHandler(sweepSvc, searchSvc),
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go syncWorker.Run(ctx)
	go sweepSvc.Run(ctx)

	go func() {
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			logrus.WithError(err).Error("http shutdown")
		}
	}()

	logrus.WithField("addr", cfg.HTTPAddr).Info("foodbridge api listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.Fatal(err)
	}
}
