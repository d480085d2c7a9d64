package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yashdodwani/gridflow/internal/config"
)

func tariffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tariff",
		Short: "Inspect the tariff schedule",
	}

	cmd.AddCommand(tariffShowCmd())
	cmd.AddCommand(tariffExportCmd())

	return cmd
}

func tariffShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List tariff bands in time order",
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

			fmt.Printf("Zone: %s\n\n", resolver.Location())
			fmt.Printf("%-7s %-7s %12s  %s\n", "START", "END", "PRICE/KWH", "LABEL")
			fmt.Println("----------------------------------------")
			for _, b := range sched.Bands() {
				fmt.Printf("%-7s %-7s %11.2f%s  %s\n", b.Start, b.End, b.PricePerKWh, cfg.Currency, b.Label)
			}

			return nil
		},
	}
}

func tariffExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the tariff table as a YAML config fragment",
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

			doc := struct {
				Zone   string              `yaml:"zone"`
				Tariff []config.BandConfig `yaml:"tariff"`
			}{
				Zone:   cfg.Zone,
				Tariff: config.BandConfigs(sched.Bands()),
			}

			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(doc)
		},
	}
}
