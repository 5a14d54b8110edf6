package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	appconfig "github.com/bvielcanet-cmyk/crypt/internal/modules/config"
	"github.com/bvielcanet-cmyk/crypt/internal/modules/health/service"
)

type Config struct {
	Addr string // например ":8080"
}

func NewConfig(cfg *appconfig.Config) Config {
	if cfg.Service.PublicPort > 0 {
		return Config{Addr: fmt.Sprintf(":%d", cfg.Service.PublicPort)}
	}
	return Config{Addr: ":8080"}
}

func NewMux(state *service.State) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// readiness: сессия площадки зарезолвлена
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// полезный JSON для отладки
		resp := map[string]any{
			"ready":       state.Ready(),
			"mode":        state.Mode(),
			"balanceUSDT": state.Balance(),
			"wsConnected": state.WSConnected(),
			"cyclesRun":   state.CyclesRun(),
			"uptimeSec":   int64(state.Uptime().Seconds()),
		}
		if last := state.LastCycle(); last != nil {
			resp["lastCycle"] = map[string]any{
				"state":      string(last.State),
				"finishedAt": last.FinishedAt.Unix(),
				"stored":     last.StoredCount(),
				"failed":     last.FailedCount(),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg Config, mux *http.ServeMux) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewConfig,
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
