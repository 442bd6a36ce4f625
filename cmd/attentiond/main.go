package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"attentiond/internal/api"
	"attentiond/internal/classify"
	"attentiond/internal/engine"
	"attentiond/internal/fusion"
	"attentiond/internal/gate"
	"attentiond/internal/logging"
	"attentiond/internal/perception"
	"attentiond/internal/schedule"
	"attentiond/internal/session"
	sig "attentiond/internal/signal"
	"attentiond/internal/store"
)

// #region main

func main() {
	logging.Init()

	dbPath := envOr("ATTENTIOND_DB", "attentiond.db")
	schedulePath := envOr("ATTENTIOND_SCHEDULE", "schedule.yaml")
	listenAddr := envOr("ATTENTIOND_ADDR", "127.0.0.1:7313")
	perceptionURL := envOr("PERCEPTION_URL", "http://127.0.0.1:7410")
	interval := envDurationOr("ATTENTIOND_INTERVAL", 5*time.Second)

	// Schedule is validated at load; refusing to start beats running
	// with ambiguous gating rules.
	sched, err := schedule.Load(schedulePath)
	if err != nil {
		log.Fatalf("schedule config: %v", err)
	}

	db, err := store.NewStore(dbPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer db.Close()

	sessions := session.NewManager(db, session.DefaultConfig())
	accessGate := gate.New(sched, sessions, gateConfig())

	collector := sig.NewCollector(buildSources(perceptionURL), sig.DefaultCollectorConfig())
	eng := engine.New(
		collector,
		fusion.NewEngine(fusion.DefaultWeights()),
		classify.NewClassifier(classify.DefaultConfig()),
		sessions,
		db,
		engine.Config{Interval: interval},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("start engine: %v", err)
	}
	logging.WithRun(eng.RunID()).Info("monitor run started",
		"interval", interval.String(), "blocks", len(sched.Blocks()))

	server := api.New(eng, accessGate, sessions, sched, schedulePath)
	go func() {
		log.Printf("[MAIN] listening on %s (db %s, schedule %s)", listenAddr, dbPath, schedulePath)
		if err := server.Listen(listenAddr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	// Graceful stop: finish the current tick, checkpoint, release
	// sensor handles.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[MAIN] shutting down")
	if err := server.Shutdown(); err != nil {
		log.Printf("[MAIN] server shutdown: %v", err)
	}
	cancel()
	eng.Stop()

	if sess, active := sessions.Active(); active {
		log.Printf("[MAIN] closing open session %s", sess.BlockName)
		if _, err := sessions.End("daemon shutdown"); err != nil {
			log.Printf("[MAIN] end session: %v", err)
		}
	}
}

// #endregion main

// #region wiring

// buildSources assembles the deployment's signal sources. Camera and
// microphone scores come from the perception service; keyboard and
// mouse recency are fed by platform listeners; window and CPU probes
// are wired per platform and report unavailable until they are.
func buildSources(perceptionURL string) []sig.Source {
	pclient := perception.NewClient(perceptionURL, 10*time.Second)

	keyboard := sig.NewKeyboardSource(10 * time.Second)
	mouse := sig.NewMouseSource(15 * time.Second)

	return []sig.Source{
		perception.NewCameraSource(pclient),
		perception.NewMicrophoneSource(pclient),
		keyboard,
		mouse,
		sig.NewProbeSource(sig.KindWindow, nil, nil, nil),
		sig.NewProbeSource(sig.KindCPU, nil, nil, nil),
	}
}

func gateConfig() gate.Config {
	cfg := gate.DefaultConfig()
	if v := os.Getenv("ATTENTIOND_REQUIRE_GOAL"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.RequireGoalBeforeFreeAccess = parsed
		}
	}
	return cfg
}

// #endregion wiring

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// #endregion helpers
