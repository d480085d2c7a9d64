package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yashdodwani/gridflow/internal/meter"
)

func meterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meter",
		Short: "Simulated meter readings and bills",
	}

	cmd.AddCommand(meterSimulateCmd())
	cmd.AddCommand(meterBillCmd())

	return cmd
}

func meterSimulateCmd() *cobra.Command {
	var count int
	var from string
	var seed uint64
	var reset bool

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate and store simulated meter readings",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			start, _ := resolver.DayBounds(resolver.Now())
			if from != "" {
				if start, err = resolver.Parse(from); err != nil {
					return err
				}
			}
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}

			if reset {
				if err := st.ResetReadings(); err != nil {
					return err
				}
			}

			sim := meter.NewSimulator(resolver, cfg.Interval, seed)
			readings := sim.Backfill(start, count)
			stored, err := st.AppendReadings(readings...)
			if err != nil {
				return err
			}

			total := 0.0
			for _, r := range readings {
				total += r.EnergyKWh
			}

			fmt.Printf("✓ Stored %s readings (%s kWh)\n", humanize.Comma(int64(stored)), humanize.FtoaWithDigits(total, 3))
			if skipped := len(readings) - stored; skipped > 0 {
				fmt.Printf("  Skipped %s already recorded\n", humanize.Comma(int64(skipped)))
			}
			if len(readings) > 0 {
				fmt.Printf("  From: %s\n", readings[0].At.Format("2006-01-02 15:04"))
				fmt.Printf("  To:   %s\n", readings[len(readings)-1].At.Format("2006-01-02 15:04"))
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 96, "Number of readings (one per interval)")
	cmd.Flags().StringVar(&from, "from", "", "First reading timestamp (default: start of today)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Noise seed (default: random)")
	cmd.Flags().BoolVar(&reset, "reset", false, "Delete stored readings first")

	return cmd
}

func meterBillCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "bill",
		Short: "Price one civil day of stored readings",
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

			day := resolver.Now()
			if date != "" {
				if day, err = resolver.Parse(date); err != nil {
					return err
				}
			}
			from, to := resolver.DayBounds(day)

			readings, err := st.ReadingsBetween(from, to)
			if err != nil {
				return err
			}
			bill, err := sched.Bill(readings)
			if err != nil {
				return err
			}

			fmt.Printf("Bill for %s (%s)\n\n", from.Format("Mon 2 Jan 2006"), resolver.Location())
			fmt.Printf("%-13s %-9s %8s %10s %12s\n", "BAND", "LABEL", "READINGS", "KWH", "COST")
			fmt.Println("---------------------------------------------------------")
			for _, u := range bill.ByBand {
				if u.Readings == 0 {
					continue
				}
				fmt.Printf("%-13s %-9s %8d %10s %12s\n",
					u.Band.Start.String()+"-"+u.Band.End.String(), u.Band.Label, u.Readings,
					humanize.FtoaWithDigits(u.EnergyKWh, 3), money(u.Cost))
			}
			fmt.Println("---------------------------------------------------------")
			fmt.Printf("%-23s %8d %10s %12s\n", "TOTAL", bill.Readings, humanize.FtoaWithDigits(bill.EnergyKWh, 3), money(bill.Cost))

			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Civil date (YYYY-MM-DD, default today)")

	return cmd
}

func money(v float64) string {
	return cfg.Currency + humanize.FormatFloat("#,###.##", v)
}
