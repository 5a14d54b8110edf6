package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bytedance/sonic"

	clssvc "github.com/bvielcanet-cmyk/crypt/internal/modules/classifier/service"
	"github.com/bvielcanet-cmyk/crypt/internal/modules/config"
	okxsvc "github.com/bvielcanet-cmyk/crypt/internal/modules/okx/service"
	portfoliosvc "github.com/bvielcanet-cmyk/crypt/internal/modules/portfolio/service"
	"github.com/bvielcanet-cmyk/crypt/internal/notify"
	"github.com/bvielcanet-cmyk/crypt/internal/runner"
	"github.com/bvielcanet-cmyk/crypt/pkg/db"
	"github.com/bvielcanet-cmyk/crypt/pkg/logger"
)

// Одноразовый мозаичный проход: все символы одним вызовом классификатора,
// отчёт в stdout. Для кронов и ручных прогонов, без health и телеграма.
func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	logger.SetServiceName("worker")

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatal("[BOOT] config: %v", err)
	}
	cfg.Scan.Mosaic = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.DB})
	if err != nil {
		logger.Fatal("[BOOT] create pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("[BOOT] ping db: %v", err)
	}
	manager := db.NewPgTxManager(pool)
	defer manager.Close()

	store := portfoliosvc.NewStore(manager)

	source := okxsvc.NewSessionSource(
		okxsvc.Credentials{
			APIKey:     cfg.OKX.APIKey,
			APISecret:  cfg.OKX.APISecret,
			Passphrase: cfg.OKX.Passphrase,
		},
		okxsvc.ParseModes(cfg.OKX.AuthModes),
	)

	cls := clssvc.New(clssvc.NewClient(clssvc.Config{
		Model:     cfg.Classifier.Model,
		APIKey:    cfg.Classifier.APIKey,
		MaxTokens: cfg.Classifier.MaxTokens,
		Timeout:   cfg.Classifier.Timeout,
	}), nil)

	scanner := runner.NewScanner(cfg, source, cls, store, notify.NewStdout())

	report := scanner.RunCycle(ctx)

	out, err := sonic.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal("[WORKER] marshal report: %v", err)
	}
	fmt.Println(string(out))

	if report.Err != "" {
		os.Exit(1)
	}
}
