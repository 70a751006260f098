package app

import (
	"context"
	"fmt"
	"time"

	"labdash/internal/compare"
	ldcfg "labdash/internal/config"
	"labdash/internal/dataset"
	"labdash/internal/drawdown"
	"labdash/internal/gateway/market"
	"labdash/internal/gateway/signalcalc"
	"labdash/internal/logger"
	"labdash/internal/record"
	"labdash/internal/store"
	"labdash/internal/store/gormstore"
	dashhttp "labdash/internal/transport/http/dash"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排:加载配置→初始化依赖→启动 HTTP 服务与后台刷新。
type App struct {
	cfg     *ldcfg.Config
	store   store.Store
	data    *dataset.Service
	scanner *drawdown.Scanner
	http    *dashhttp.Server
}

// NewApp 根据配置构建应用对象(不启动)。
func NewApp(cfg *ldcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	st, err := gormstore.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("init store failed: %w", err)
	}
	data := dataset.New(st, cfg.Database.TradeLimit)

	marketClient, err := market.New(market.Config{
		RESTBaseURL: cfg.Market.RESTBaseURL,
		HTTPTimeout: time.Duration(cfg.Market.TimeoutSeconds) * time.Second,
		ProxyURL:    cfg.Market.ProxyURL,
	})
	if err != nil {
		return nil, fmt.Errorf("init market gateway failed: %w", err)
	}

	signals, err := signalcalc.NewClient(signalcalc.Config{
		APIURL:             cfg.Signals.APIURL,
		APIToken:           cfg.Signals.APIToken,
		Username:           cfg.Signals.Username,
		Password:           cfg.Signals.Password,
		TimeoutSeconds:     cfg.Signals.TimeoutSeconds,
		InsecureSkipVerify: cfg.Signals.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("init signal gateway failed: %w", err)
	}

	fetchLogs := eventLogFetcher(st)
	scanner := drawdown.NewScanner(fetchLogs, drawdown.Options{
		ProfitFloor:      cfg.Compare.ProfitFloor,
		DropThresholdPct: cfg.Compare.DropThresholdPct,
	})

	router := &dashhttp.Router{
		Store:   st,
		Data:    data,
		Market:  marketClient,
		Cache:   market.NewCandleCache(),
		Signals: signals,
		Scanner: scanner,
		Logs:    fetchLogs,
		Thresholds: compare.Thresholds{
			WindowHours:         cfg.Compare.WindowHours,
			LateFetchMinutes:    cfg.Compare.LateFetchMinutes,
			PriceGapPct:         cfg.Compare.PriceGapPct,
			CloseTimeGapMinutes: cfg.Compare.CloseTimeGapMinutes,
			ClosePriceGapPct:    cfg.Compare.ClosePriceGapPct,
		},
		DefaultBackendID: cfg.Compare.DefaultBackendID,
		TradeLimit:       cfg.Database.TradeLimit,
	}
	server, err := dashhttp.NewServer(cfg.App.HTTPAddr, router)
	if err != nil {
		return nil, fmt.Errorf("init http server failed: %w", err)
	}

	return &App{
		cfg:     cfg,
		store:   st,
		data:    data,
		scanner: scanner,
		http:    server,
	}, nil
}

// Run 启动 HTTP 服务与后台快照刷新,直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.store.Close()

	if err := a.data.Refresh(ctx); err != nil {
		logger.Warnf("[app] initial snapshot refresh failed: %v", err)
	}
	logger.Infof("[app] dashboard listening on %s (env=%s)", a.http.Addr(), a.cfg.App.Env)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.http.Start(ctx); err != nil {
			return fmt.Errorf("dash http server error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		a.refreshLoop(ctx)
		return nil
	})
	return group.Wait()
}

// refreshLoop 定期重建数据快照。记录集变化后旧的扫描判定不再可信,
// 因此每次刷新都会清空扫描缓存。
func (a *App) refreshLoop(ctx context.Context) {
	interval := time.Duration(a.cfg.Compare.RefreshSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.data.Refresh(ctx); err != nil {
				logger.Warnf("[app] snapshot refresh failed: %v", err)
				continue
			}
			a.scanner.Reset()
		}
	}
}

// eventLogFetcher adapts the event-log table to the scanner's fetch contract.
func eventLogFetcher(st store.Store) drawdown.FetchFunc {
	return func(ctx context.Context, uid string) ([]record.LogEntry, error) {
		rows, _, err := st.ListBotEventLogs(ctx, store.EventLogQuery{
			UID:           uid,
			SortKey:       "timestamp",
			SortAscending: true,
			All:           true,
		})
		if err != nil {
			return nil, err
		}
		entries := make([]record.LogEntry, 0, len(rows))
		for _, row := range rows {
			entry := record.ParseLogEntry(row.JSONMessage)
			if entry.Timestamp == nil && !row.Timestamp.IsZero() {
				ts := row.Timestamp.UTC()
				entry.Timestamp = &ts
			}
			if entry.PL == nil {
				entry.PL = row.PLAfterComm
			}
			entries = append(entries, entry)
		}
		return entries, nil
	}
}
