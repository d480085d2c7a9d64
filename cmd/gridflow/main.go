package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yashdodwani/gridflow/internal/civiltime"
	"github.com/yashdodwani/gridflow/internal/config"
	"github.com/yashdodwani/gridflow/internal/engine"
	"github.com/yashdodwani/gridflow/internal/logging"
	"github.com/yashdodwani/gridflow/internal/store"
	"github.com/yashdodwani/gridflow/internal/tariff"
)

var (
	cfgFile string
	dbPath  string

	cfg      *config.Config
	resolver *civiltime.Resolver
	logger   *logging.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gridflow",
		Short: "GridFlow - plan appliance runs against a time-of-day tariff",
		Long: `GridFlow prices energy against a civil-time tariff schedule, finds the
cheapest time to run household appliances and reports the savings.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gridflow/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default is $HOME/.gridflow/gridflow.db)")

	rootCmd.AddCommand(priceCmd())
	rootCmd.AddCommand(tariffCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(meterCmd())
	rootCmd.AddCommand(applianceCmd())
	rootCmd.AddCommand(initCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, args []string) error {
	v := config.New()
	if err := v.BindPFlag("db_path", cmd.Root().PersistentFlags().Lookup("db")); err != nil {
		return err
	}

	var err error
	if cfg, err = config.Load(v, cfgFile); err != nil {
		return err
	}
	if resolver, err = cfg.Resolver(nil); err != nil {
		return err
	}
	logger = logging.New(cfg.LogLevel, cfg.LogFormat).WithComponent("cli")
	dbPath = cfg.DBPath

	return nil
}

func openStore() (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}
	st, err := store.NewStore(dbPath, resolver)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return st, nil
}

// loadSchedule prefers the table seeded into the store by `gridflow init`
// and falls back to the configured one.
func loadSchedule(st *store.Store) (*tariff.Schedule, error) {
	if st != nil {
		sched, ok, err := st.Schedule()
		if err != nil {
			return nil, fmt.Errorf("loading stored tariff: %w", err)
		}
		if ok {
			return sched, nil
		}
	}
	return cfg.Schedule()
}

func priceCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Show the tariff price at an instant",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			sched, err := loadSchedule(st)
			if err != nil {
				return err
			}

			instant := resolver.Now()
			if at != "" {
				if instant, err = resolver.Parse(at); err != nil {
					return err
				}
			}

			band, err := sched.BandAt(instant)
			if err != nil {
				return err
			}

			fmt.Printf("%s  %-8s %s%.2f/kWh\n", instant.Format("2006-01-02 15:04 MST"), band.Label, cfg.Currency, band.PricePerKWh)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Timestamp (RFC3339 or civil 'YYYY-MM-DD HH:MM'; default now)")

	return cmd
}

func planCmd() *cobra.Command {
	var applianceID string
	var adhoc engine.Appliance
	var from, to, date, baselineAt string
	var topN int

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Find the cheapest time to run appliances",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			sched, err := loadSchedule(st)
			if err != nil {
				return err
			}

			var appliances []*engine.Appliance
			switch {
			case adhoc.Name != "":
				if adhoc.WindowStart, err = civiltime.ParseTimeOfDay(from); err != nil {
					return err
				}
				if adhoc.WindowEnd, err = civiltime.ParseTimeOfDay(to); err != nil {
					return err
				}
				appliances = []*engine.Appliance{&adhoc}
			case applianceID != "":
				a, err := st.GetAppliance(applianceID)
				if err != nil {
					return err
				}
				appliances = []*engine.Appliance{a}
			default:
				all, err := st.ListAppliances()
				if err != nil {
					return fmt.Errorf("getting appliances: %w", err)
				}
				for _, a := range all {
					if a.Enabled {
						appliances = append(appliances, a)
					}
				}
				if len(appliances) == 0 {
					return fmt.Errorf("no enabled appliances (use 'gridflow appliance add' or --name)")
				}
			}

			var baseline civiltime.Instant
			if baselineAt != "" {
				if baseline, err = resolver.Parse(baselineAt); err != nil {
					return err
				}
			}

			plans := []engine.Plan{}
			for _, a := range appliances {
				var p engine.ApplianceProfile
				if date != "" {
					day, err := resolver.Parse(date)
					if err != nil {
						return err
					}
					p, err = a.Profile(resolver, day, cfg.Interval)
					if err != nil {
						return err
					}
				} else {
					p, err = a.NextProfile(resolver, resolver.Now(), cfg.Interval, cfg.Granularity)
					if err != nil {
						return err
					}
				}

				plan, err := engine.BuildPlan(p, sched, cfg.Granularity, baseline, cfg.EmissionFactor, topN)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Warning: %s - %v\n", a.Name, err)
					continue
				}
				plans = append(plans, plan)
			}

			// Output as JSON
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(plans)
		},
	}

	cmd.Flags().StringVarP(&applianceID, "appliance", "a", "", "Stored appliance ID (default: all enabled)")
	cmd.Flags().StringVarP(&adhoc.Name, "name", "n", "", "Plan an ad hoc appliance with this name instead")
	cmd.Flags().Float64Var(&adhoc.PowerKW, "power", 1.0, "Ad hoc power draw in kW")
	cmd.Flags().IntVarP(&adhoc.CycleMinutes, "cycle", "c", 60, "Ad hoc cycle duration in minutes")
	cmd.Flags().StringVar(&from, "from", "00:00", "Ad hoc window start (HH:MM)")
	cmd.Flags().StringVar(&to, "to", "00:00", "Ad hoc window end (HH:MM; earlier than --from runs overnight)")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Civil date the window opens on (default: next usable window)")
	cmd.Flags().StringVar(&baselineAt, "baseline", "", "Baseline start to compare against (default: window start)")
	cmd.Flags().IntVar(&topN, "top", 3, "Number of ranked alternatives")

	return cmd
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Seed the configured tariff table into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			bands, err := cfg.Bands()
			if err != nil {
				return err
			}
			if err := st.SaveBands(bands); err != nil {
				return err
			}

			fmt.Printf("✓ Seeded %d tariff bands (%s)\n", len(bands), resolver.Location())
			fmt.Printf("Database: %s\n", dbPath)
			fmt.Println("\nNext steps:")
			fmt.Println("  1. Add appliances: gridflow appliance add --name washer --power 2 --cycle 90")
			fmt.Println("  2. Generate plan: gridflow plan")

			return nil
		},
	}
}
