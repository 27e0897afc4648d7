package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"github.com/timelineaudio/engine/internal/config"
	"github.com/timelineaudio/engine/internal/editor"
	"github.com/timelineaudio/engine/internal/logging"
	"github.com/timelineaudio/engine/internal/media"
	"github.com/timelineaudio/engine/internal/model"
	"github.com/timelineaudio/engine/internal/monitor"
	"github.com/timelineaudio/engine/internal/obsmetrics"
	"github.com/timelineaudio/engine/internal/persistence"
	"github.com/timelineaudio/engine/internal/rtgraph"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, nil)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := persistence.Open(cfg.DatabasePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("engine: open scene store")
	}
	defer store.Close()

	initial, err := loadOrCreateInitialScene(store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("engine: load initial scene")
	}

	var pump *monitor.Pump
	if cfg.MonitorEnabled {
		pump = monitor.NewPump()
		go pump.Run(ctx)
	}
	graph := rtgraph.New(pump)
	go graph.Run(ctx)

	resolver := media.NewLocalResolver(cfg.MediaDir)
	metrics := obsmetrics.NewScheduler(otel.GetMeterProvider())

	ed := editor.New(graph, initial, store, resolver, metrics, cfg, log)

	go driveTicks(ctx, ed, cfg)

	var broadcaster *monitor.Broadcaster
	if pump != nil {
		broadcaster = monitor.NewBroadcaster(log)
		go broadcaster.Run(ctx, pump.Frames())
	}

	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: newRouter(ed, broadcaster)}
	go func() {
		<-ctx.Done()
		log.Info().Msg("engine: shutting down")
		server.Close()
	}()

	log.Info().Str("addr", server.Addr).Msg("engine: listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("engine: http server error")
	}
}

// loadOrCreateInitialScene resumes the most recently persisted scene (the
// last id in Store.List), or starts a fresh empty scene on a brand new
// database.
func loadOrCreateInitialScene(store *persistence.Store, log zerolog.Logger) (model.Scene, error) {
	ids, err := store.List()
	if err != nil {
		return model.Scene{}, err
	}
	if len(ids) == 0 {
		sc := model.Scene{ID: model.NewSceneID()}
		if err := store.Save(sc); err != nil {
			return model.Scene{}, err
		}
		return sc, nil
	}

	sc, migrated, err := store.Load(ids[len(ids)-1])
	if err != nil {
		return model.Scene{}, err
	}
	if migrated {
		log.Info().Str("scene_id", sc.ID.String()).Msg("engine: resumed scene required migration")
	}
	return sc, nil
}

// driveTicks runs the scheduler's lookahead and gain ticks from wall-clock
// timers, the host-loop role internal/scheduler's doc comment describes.
func driveTicks(ctx context.Context, ed *editor.Editor, cfg config.Config) {
	lookahead := cfg.LookaheadTick
	if lookahead <= 0 {
		lookahead = 500 * time.Millisecond
	}
	gain := cfg.GainTickInterval
	if gain <= 0 {
		gain = 100 * time.Millisecond
	}

	lookaheadTicker := time.NewTicker(lookahead)
	gainTicker := time.NewTicker(gain)
	defer lookaheadTicker.Stop()
	defer gainTicker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-lookaheadTicker.C:
			ed.OnLookaheadTick(ctx, time.Since(start).Seconds())
		case <-gainTicker.C:
			ed.OnGainTick(ctx, time.Since(start).Seconds())
		}
	}
}

func newRouter(ed *editor.Editor, broadcaster *monitor.Broadcaster) http.Handler {
	r := chi.NewRouter()

	r.Get("/api/status", func(w http.ResponseWriter, req *http.Request) {
		active, _ := ed.ActiveScene()
		writeJSON(w, map[string]any{
			"active_scene_id": active.ID.String(),
			"scene_count":     len(ed.Scenes()),
		})
	})

	r.Get("/api/scenes", func(w http.ResponseWriter, req *http.Request) {
		scenes := ed.Scenes()
		ids := make([]string, len(scenes))
		for i, s := range scenes {
			ids[i] = s.ID.String()
		}
		writeJSON(w, map[string]any{"scenes": ids, "active": ed.ActiveSceneID().String()})
	})

	r.Post("/api/scenes/{id}/activate", func(w http.ResponseWriter, req *http.Request) {
		id, err := parseSceneID(chi.URLParam(req, "id"))
		if err != nil {
			http.Error(w, "invalid scene id", http.StatusBadRequest)
			return
		}
		if err := ed.SwitchActiveScene(id); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "active": id.String()})
	})

	r.Post("/api/scenes/{id}/load", func(w http.ResponseWriter, req *http.Request) {
		id, err := parseSceneID(chi.URLParam(req, "id"))
		if err != nil {
			http.Error(w, "invalid scene id", http.StatusBadRequest)
			return
		}
		sc, err := ed.LoadScene(id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"ok": true, "scene_id": sc.ID.String()})
	})

	r.Post("/api/transport/play", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Time float64 `json:"time"`
		}
		json.NewDecoder(req.Body).Decode(&body)
		ed.Play(req.Context(), body.Time)
		writeJSON(w, map[string]any{"ok": true})
	})

	r.Post("/api/transport/stop", func(w http.ResponseWriter, req *http.Request) {
		ed.Stop()
		writeJSON(w, map[string]any{"ok": true})
	})

	r.Post("/api/transport/seek", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Time float64 `json:"time"`
		}
		json.NewDecoder(req.Body).Decode(&body)
		ed.Seek(req.Context(), body.Time)
		writeJSON(w, map[string]any{"ok": true})
	})

	r.Post("/api/undo", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"ok": ed.Undo()})
	})

	r.Post("/api/redo", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"ok": ed.Redo()})
	})

	r.Post("/api/save", func(w http.ResponseWriter, req *http.Request) {
		if err := ed.SaveActiveScene(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"ok": true})
	})

	if broadcaster != nil {
		r.Handle("/stream", monitor.NewHTTPHandler(broadcaster, logging.Nop()))
		r.Handle("/offer", monitor.NewWebRTCHandler(broadcaster, logging.Nop()))
	}

	return r
}

func parseSceneID(s string) (model.SceneID, error) {
	var id model.SceneID
	if err := id.UnmarshalText([]byte(s)); err != nil {
		return model.SceneID{}, err
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
