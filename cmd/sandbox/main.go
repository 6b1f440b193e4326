/**
 * @description
 * This is the main entry point for the sandbox banking API: an in-memory
 * stand-in that honours the harness's endpoint contract for local runs.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files during local development.
 */
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/transfa/bank-api-harness/internal/sandbox"
	"github.com/transfa/bank-api-harness/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	var (
		addr      = flag.String("addr", ":8083", "listen address")
		basePath  = flag.String("base-path", "/api", "path prefix of every resource route")
		jwtSecret = flag.String("jwt-secret", os.Getenv("SANDBOX_JWT_SECRET"), "require HS256 bearer tokens signed with this secret")
		level     = flag.String("log-level", "info", "debug, info, warn or error")
		origins   = flag.String("cors-origins", "", "comma separated origins allowed to call the sandbox from a browser")
	)
	flag.Parse()

	log, _ := logger.New(*level)
	defer log.Sync()

	opts := sandbox.Options{BasePath: *basePath, JWTSecret: *jwtSecret, Logger: log}
	if *origins != "" {
		opts.AllowedOrigins = strings.Split(*origins, ",")
	}
	sb := sandbox.New(opts)
	server := &http.Server{
		Addr:    *addr,
		Handler: sb.Router(),
	}

	go func() {
		log.Info("sandbox starting", zap.String("addr", *addr), zap.String("base_path", *basePath), zap.Bool("auth", *jwtSecret != ""))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not start sandbox", zap.Error(err))
		}
	}()

	// Graceful shutdown logic.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down sandbox")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("sandbox shutdown failed", zap.Error(err))
		return
	}
	log.Info("sandbox gracefully stopped")
}
