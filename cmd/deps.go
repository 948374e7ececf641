package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/LieutenantJoseph/flashfungi/internal/achievements"
	"github.com/LieutenantJoseph/flashfungi/internal/config"
	"github.com/LieutenantJoseph/flashfungi/internal/logger"
	"github.com/LieutenantJoseph/flashfungi/internal/pgstore"
	"github.com/LieutenantJoseph/flashfungi/internal/store"
	"github.com/LieutenantJoseph/flashfungi/internal/userlock"
)

// deps holds the dependencies a command needs. close releases them in
// reverse order of acquisition.
type deps struct {
	cfg      config.Config
	log      *logger.Logger
	store    *store.Store
	progress store.ProgressRepo
	service  *achievements.Service

	closers []func()
}

func (r *deps) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// loadConfig reads .env, the environment, and command flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var files []string
	if f, _ := cmd.Flags().GetString("env-file"); f != "" {
		files = append(files, f)
	}
	if err := config.LoadDotEnv(files...); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.ConfigFromEnv()
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetString("log-mode"); v != "" {
		cfg.LogMode = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("catalog"); v != "" {
		cfg.CatalogPath = v
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadCatalog(cfg config.Config) (*achievements.Catalog, error) {
	if cfg.CatalogPath == "" {
		return achievements.DefaultCatalog()
	}
	return achievements.LoadCatalogFile(cfg.CatalogPath)
}

// openDeps opens the SQLite store and, depending on configuration, the
// Postgres progress store and the Redis user lock, then builds the
// achievement service.
func openDeps(ctx context.Context, cmd *cobra.Command) (*deps, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	rt := &deps{cfg: cfg, log: log}
	rt.closers = append(rt.closers, log.Sync)

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	rt.store = st
	rt.closers = append(rt.closers, func() { st.Close() })
	rt.progress = st.ProgressRepo()

	if cfg.Store == config.StorePostgres {
		pool, err := pgstore.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		if err := pgstore.Migrate(ctx, pool); err != nil {
			rt.close()
			return nil, err
		}
		rt.progress = pgstore.NewProgressRepo(pool)
		log.Debug("using postgres progress store")
	}

	var locker userlock.Locker = userlock.NewLocal()
	if cfg.RedisURL != "" {
		client, err := userlock.ConnectRedis(cfg.RedisURL)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.closers = append(rt.closers, func() { client.Close() })
		locker = userlock.NewRedis(client, userlock.WithTTL(cfg.LockTTL))
		log.Debug("using redis user lock")
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	rt.service = achievements.NewService(catalog, rt.progress,
		achievements.WithEventRepo(st.EventRepo()),
		achievements.WithLocker(locker),
		achievements.WithLogger(log),
	)
	return rt, nil
}

func currentUser(cmd *cobra.Command) string {
	u, _ := cmd.Flags().GetString("user")
	return u
}

func warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

func printAwards(w io.Writer, awards []achievements.Award) {
	for _, a := range awards {
		fmt.Fprintf(w, "🏅 Achievement unlocked: %s [%s, %d pts] (%s)\n",
			a.Definition.Name, a.Definition.Rarity.DisplayName(), a.Definition.Points, a.Reason)
	}
}
