package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yashdodwani/gridflow/internal/civiltime"
	"github.com/yashdodwani/gridflow/internal/config"
	"github.com/yashdodwani/gridflow/internal/logging"
	"github.com/yashdodwani/gridflow/internal/meter"
	"github.com/yashdodwani/gridflow/internal/store"
	"github.com/yashdodwani/gridflow/internal/tariff"
	"github.com/yashdodwani/gridflow/internal/uiapi"
)

var version = "dev"

func main() {
	var cfgFile string
	var backfill bool

	rootCmd := &cobra.Command{
		Use:          "gridflowd",
		Short:        "GridFlow HTTP API with a simulated smart meter",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.New()
			for key, flag := range map[string]string{"port": "port", "db_path": "db", "simulate_every": "simulate-every"} {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}

			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, backfill)
		},
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gridflow/config.yaml)")
	rootCmd.Flags().IntP("port", "p", 8080, "HTTP port")
	rootCmd.Flags().String("db", "", "Database path")
	rootCmd.Flags().Duration("simulate-every", 0, "Meter simulation tick (default: the metering interval)")
	rootCmd.Flags().BoolVar(&backfill, "backfill", true, "Fill today's missing readings on startup")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, backfill bool) error {
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	resolver, err := cfg.Resolver(nil)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating database dir: %w", err)
	}
	st, err := store.NewStore(cfg.DBPath, resolver)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	sched, err := schedule(st, cfg, log)
	if err != nil {
		return err
	}

	srv := uiapi.NewServer(uiapi.Options{
		Resolver:       resolver,
		Schedule:       sched,
		Store:          st,
		Logger:         log,
		Interval:       cfg.Interval,
		Granularity:    cfg.Granularity,
		EmissionFactor: cfg.EmissionFactor,
		Currency:       cfg.Currency,
		Version:        version,
	})

	sim := meter.NewSimulator(resolver, cfg.Interval, uint64(time.Now().UnixNano()))
	if backfill {
		if err := backfillToday(st, sim, resolver, log); err != nil {
			return err
		}
	}

	simLog := log.WithComponent("meter")
	go func() {
		err := sim.Run(ctx, cfg.SimulateEvery, func(_ context.Context, r meter.Reading) error {
			stored, err := st.AppendReadings(r)
			if err != nil {
				simLog.Error("storing reading", "error", err)
				return nil
			}
			if stored == 0 {
				return nil
			}
			simLog.LogReading(r.At.String(), r.EnergyKWh)
			return srv.Hub().BroadcastReading(r)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			simLog.Error("meter simulation stopped", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("GridFlow server starting",
			"port", cfg.Port,
			"zone", resolver.Location().String(),
			"database", cfg.DBPath,
			"bands", sched.Len(),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// schedule prefers the table seeded into the store and falls back to the
// configured one.
func schedule(st *store.Store, cfg *config.Config, log *logging.Logger) (*tariff.Schedule, error) {
	sched, ok, err := st.Schedule()
	if err != nil {
		return nil, fmt.Errorf("loading stored tariff: %w", err)
	}
	if ok {
		log.Info("Using stored tariff table")
		return sched, nil
	}
	return cfg.Schedule()
}

// backfillToday stores simulated readings from the latest stored reading (or
// civil midnight) up to the interval containing now.
func backfillToday(st *store.Store, sim *meter.Simulator, r *civiltime.Resolver, log *logging.Logger) error {
	now := r.Now()
	from, _ := r.DayBounds(now)

	latest, err := st.LatestReading()
	switch {
	case err == nil && !latest.At.Before(from):
		from = latest.At.Add(sim.Interval())
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return err
	}

	slots := r.Slots(from, now, sim.Interval())
	if len(slots) == 0 {
		return nil
	}

	readings := sim.Backfill(slots[0], len(slots))
	stored, err := st.AppendReadings(readings...)
	if err != nil {
		return fmt.Errorf("backfilling readings: %w", err)
	}
	log.Info("Backfilled meter readings", "count", stored, "from", slots[0].String())
	return nil
}
