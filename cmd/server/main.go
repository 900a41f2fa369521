// Moodflick - Mood-Based Movie & Series Recommendation Engine
// Copyright 2026 Oleh Khomenko (okhomenko)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/okhomenko/moodflick

// Command server runs the Moodflick recommendation HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/okhomenko/moodflick/internal/antirepeat"
	"github.com/okhomenko/moodflick/internal/api"
	"github.com/okhomenko/moodflick/internal/config"
	"github.com/okhomenko/moodflick/internal/learning"
	"github.com/okhomenko/moodflick/internal/llm"
	"github.com/okhomenko/moodflick/internal/logging"
	"github.com/okhomenko/moodflick/internal/rationale"
	"github.com/okhomenko/moodflick/internal/recommend"
	"github.com/okhomenko/moodflick/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "moodflick: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Logging)
	logger.Info().
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Path).
		Bool("llm_enabled", cfg.LLM.APIKey != "").
		Msg("starting moodflick")

	store, err := storage.Open(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	llmClient, err := llm.NewClient(cfg.LLM, logger)
	if err != nil {
		return err
	}

	var explainer rationale.HintExplainer
	var translator recommend.HintTranslator
	if llmClient.Enabled() {
		explainer = llmClient
		translator = llmClient
	}
	rationales := rationale.NewGenerator(explainer, logger)

	policy := antirepeat.NewPolicy(store, store, cfg.Recommend.AntiRepeatDays)

	engine, err := recommend.NewEngine(cfg.Recommend, recommend.Deps{
		Catalog:    store,
		Selections: store,
		Weights:    store,
		Excluder:   policy,
		Events:     store,
		Rationales: rationales,
		Translator: translator,
	}, logger)
	if err != nil {
		return err
	}

	updater := learning.NewUpdater(store, store, store, logger)
	router := api.NewRouter(engine, updater, store, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(cfg.Server.RateLimitPerMinute),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info().Msg("stopped")
	return nil
}
