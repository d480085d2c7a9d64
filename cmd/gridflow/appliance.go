package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yashdodwani/gridflow/internal/civiltime"
	"github.com/yashdodwani/gridflow/internal/engine"
)

func applianceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appliance",
		Short: "Manage appliances",
	}

	cmd.AddCommand(applianceAddCmd())
	cmd.AddCommand(applianceListCmd())
	cmd.AddCommand(applianceRemoveCmd())

	return cmd
}

func applianceAddCmd() *cobra.Command {
	var a engine.Appliance
	var from, to string
	var disabled bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new appliance",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if a.WindowStart, err = civiltime.ParseTimeOfDay(from); err != nil {
				return err
			}
			if a.WindowEnd, err = civiltime.ParseTimeOfDay(to); err != nil {
				return err
			}
			a.Enabled = !disabled

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.SaveAppliance(&a); err != nil {
				return err
			}

			fmt.Printf("✓ Added appliance: %s\n", a.Name)
			fmt.Printf("  ID: %s\n", a.ID)
			fmt.Printf("  Cycle: %d minutes at %.2f kW\n", a.CycleMinutes, a.PowerKW)
			fmt.Printf("  Window: %s-%s\n", a.WindowStart, a.WindowEnd)

			return nil
		},
	}

	cmd.Flags().StringVarP(&a.Name, "name", "n", "", "Appliance name (required)")
	cmd.Flags().Float64VarP(&a.PowerKW, "power", "p", 1.0, "Power draw in kW")
	cmd.Flags().IntVarP(&a.CycleMinutes, "cycle", "c", 60, "Cycle duration in minutes")
	cmd.Flags().StringVar(&from, "from", "00:00", "Allowed window start (HH:MM)")
	cmd.Flags().StringVar(&to, "to", "00:00", "Allowed window end (HH:MM; earlier than --from runs overnight)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Store the appliance but leave it out of plans")

	cmd.MarkFlagRequired("name")

	return cmd
}

func applianceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all appliances",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			appliances, err := st.ListAppliances()
			if err != nil {
				return err
			}

			if len(appliances) == 0 {
				fmt.Println("No appliances configured")
				return nil
			}

			fmt.Printf("%-20s %-36s %7s %8s %-11s %8s %s\n", "NAME", "ID", "CYCLE", "KW", "WINDOW", "ENABLED", "ADDED")
			fmt.Println("--------------------------------------------------------------------------------------------------------")

			for _, a := range appliances {
				enabled := "Yes"
				if !a.Enabled {
					enabled = "No"
				}
				fmt.Printf("%-20s %-36s %6dm %8s %-11s %8s %s\n",
					a.Name, a.ID, a.CycleMinutes, humanize.FtoaWithDigits(a.PowerKW, 2),
					a.WindowStart.String()+"-"+a.WindowEnd.String(), enabled, humanize.Time(a.CreatedAt.Time()))
			}

			return nil
		},
	}
}

func applianceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an appliance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteAppliance(args[0]); err != nil {
				return err
			}

			fmt.Printf("✓ Removed appliance %s\n", args[0])
			return nil
		},
	}
}
