package main

import (
	"carfit/internal/audit"
	"carfit/internal/catalog"
	"carfit/internal/configuration"
	"carfit/internal/history"
	"carfit/internal/logging"
	"carfit/internal/metrics"
	"carfit/internal/rank"
	"carfit/internal/score"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app — компоненты, общие для команд serve и rank.
type app struct {
	config   *configuration.AppConfig
	catalog  *catalog.Store
	engine   *rank.Engine
	metrics  *metrics.Metrics
	closeLog func() error
}

// newApp загружает .env и конфигурацию, настраивает логгер и собирает движок.
// logOut задаёт вывод логов, когда в конфигурации не указан файл; nil — stdout.
func newApp(logOut io.Writer) (*app, error) {
	if err := configuration.LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	config, err := configuration.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to load configuration: %w", err)
	}

	logCfg := config.Logger.Logging()
	logCfg.Writer = logOut
	closeLog, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("unable to set up logger: %w", err)
	}

	policy, err := score.LoadPolicy(config.Ranking.Policy)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("unable to load scoring policy: %w", err)
	}
	// Пользовательские правила накладываются поверх политики.
	for section, file := range map[string]string{"soft": config.Ranking.SoftRules, "style": config.Ranking.StyleRules} {
		if file == "" {
			continue
		}
		if err := policy.MergeRules(section, file); err != nil {
			closeLog()
			return nil, fmt.Errorf("unable to load scoring rules: %w", err)
		}
		slog.Info("Scoring rules merged", "layer", section, "file", file)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	store, err := catalog.NewStore(config.Catalog.File)
	m.RecordCatalog(storeSize(store), err)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("unable to load catalog: %w", err)
	}

	return &app{
		config:   config,
		catalog:  store,
		engine:   rank.NewEngine(policy, config.Ranking.Options(), m),
		metrics:  m,
		closeLog: closeLog,
	}, nil
}

func storeSize(s *catalog.Store) int {
	if s == nil {
		return 0
	}
	return len(s.Vehicles())
}

// newHistory создаёт хранилище истории согласно конфигурации.
// Для хранилища в памяти запускается фоновая очистка, которая завершается вместе с ctx.
func (a *app) newHistory(ctx context.Context) (history.Repository, error) {
	cfg := a.config.History
	switch cfg.Type {
	case configuration.HistoryTypeRedis:
		repo, err := history.NewRedisRepository(ctx, cfg.RedisOptions(), cfg.Length, cfg.Ttl)
		if err != nil {
			return nil, err
		}
		slog.Info("History stored in redis", "addr", cfg.Redis.Addr)
		return repo, nil
	default:
		repo := history.NewMemoryRepository(cfg.Length, cfg.Ttl)
		go repo.Serve(ctx)
		return repo, nil
	}
}

// newAudit открывает журнал выдачи; без файла записи отбрасываются.
func (a *app) newAudit() audit.Log {
	cfg := a.config.Audit
	if cfg.File == "" {
		return audit.Discard{}
	}
	return audit.NewJSONLog(cfg.File, cfg.Size, cfg.Amount)
}
