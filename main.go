package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/quanh29/e-sweety-cake-sub000/handlers"
	"github.com/quanh29/e-sweety-cake-sub000/internal/audit"
	"github.com/quanh29/e-sweety-cake-sub000/internal/auth"
	"github.com/quanh29/e-sweety-cake-sub000/internal/consul"
	"github.com/quanh29/e-sweety-cake-sub000/internal/contact"
	"github.com/quanh29/e-sweety-cake-sub000/internal/imports"
	"github.com/quanh29/e-sweety-cake-sub000/internal/orders"
	"github.com/quanh29/e-sweety-cake-sub000/internal/products"
	"github.com/quanh29/e-sweety-cake-sub000/internal/stores/kafka"
	"github.com/quanh29/e-sweety-cake-sub000/internal/stores/postgres"
	"github.com/quanh29/e-sweety-cake-sub000/internal/users"
	"github.com/quanh29/e-sweety-cake-sub000/internal/vouchers"
	"github.com/quanh29/e-sweety-cake-sub000/pkg/logging"
	"github.com/quanh29/e-sweety-cake-sub000/pkg/logkey"
)

const serviceName = "bakery"

func main() {
	if err := run(); err != nil {
		slog.Error("service terminated", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, reading environment directly")
	}
	logging.New()

	db, err := postgres.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return err
	}

	privatePEM, err := os.ReadFile(os.Getenv("JWT_PRIVATE_KEY_FILE"))
	if err != nil {
		return err
	}
	publicPEM, err := os.ReadFile(os.Getenv("JWT_PUBLIC_KEY_FILE"))
	if err != nil {
		return err
	}
	authKeys, err := auth.NewKeys(privatePEM, publicPEM)
	if err != nil {
		return err
	}

	// Audit events keep flowing without a broker in local setups.
	var sink *audit.Sink
	kafkaConf, err := kafka.NewConf()
	if err != nil {
		slog.Warn("kafka unavailable, audit events disabled", slog.String(logkey.ERROR, err.Error()))
		sink = audit.NewSink(nil)
	} else {
		defer kafkaConf.Close()
		sink = audit.NewSink(kafkaConf)
	}

	vouchersConf, err := vouchers.NewConf(db)
	if err != nil {
		return err
	}
	ordersConf, err := orders.NewConf(db, vouchersConf)
	if err != nil {
		return err
	}
	productsConf, err := products.NewConf(db)
	if err != nil {
		return err
	}
	importsConf, err := imports.NewConf(db)
	if err != nil {
		return err
	}
	usersConf, err := users.NewConf(db)
	if err != nil {
		return err
	}
	contactConf, err := contact.NewConf(db)
	if err != nil {
		return err
	}

	if client, err := consul.NewClient(); err != nil {
		slog.Warn("consul unavailable, skipping registration", slog.String(logkey.ERROR, err.Error()))
	} else if err := consul.RegisterService(client, serviceName); err != nil {
		slog.Warn("consul registration failed", slog.String(logkey.ERROR, err.Error()))
	}

	h := handlers.NewHandler(ordersConf, productsConf, importsConf, vouchersConf,
		usersConf, contactConf, sink, authKeys)

	port := os.Getenv("SERVICE_PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handlers.API(h),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("server starting", slog.String("Addr", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-shutdown:
		slog.Info("shutdown started", slog.String("Signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			return err
		}
	}
	return nil
}
