package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/steadylab/caffeine-tracker/internal/client"
	"github.com/steadylab/caffeine-tracker/internal/intake"
	"github.com/steadylab/caffeine-tracker/internal/provider/openfoodfacts"
	"github.com/steadylab/caffeine-tracker/internal/storage/filestore"
)

var (
	dataDir string
	apiURL  string
	token   string
	date    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "caffeine",
		Short: "Track caffeine intake from the terminal",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "Directory for local logs and preferences")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:3001", "Base URL of the tracker API")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("CAFFEINE_TOKEN"), "Bearer token for scoped API access")
	rootCmd.PersistentFlags().StringVar(&date, "date", "", "Date (YYYY-MM-DD), defaults to today")

	rootCmd.AddCommand(
		newSourceCommand(),
		newLogCommand(),
		newListCommand(),
		newDeleteCommand(),
		newSummaryCommand(),
		newPresetsCommand(),
		newSearchCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".caffeine-tracker"
	}
	return filepath.Join(base, "caffeine-tracker")
}

func resolveDate() string {
	if date != "" {
		return date
	}
	return time.Now().Format(intake.DateLayout)
}

func newSelector() (*client.Selector, error) {
	return client.NewSelector(filepath.Join(dataDir, "source.json"), client.SourceAPI)
}

// newService resolves the active source (API or local file) and wraps it in
// the intake service so validation and summaries behave identically to the
// server.
func newService() (*intake.Service, error) {
	selector, err := newSelector()
	if err != nil {
		return nil, err
	}

	local, err := filestore.New(filepath.Join(dataDir, "logs.json"))
	if err != nil {
		return nil, err
	}

	store, err := selector.Store(client.StoreSet{
		API:   &client.Client{BaseURL: apiURL, Token: token},
		Local: local,
	})
	if err != nil {
		return nil, err
	}

	return intake.NewService(intake.ServiceConfig{Store: store})
}

func newSourceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "source [api|local]",
		Short: "Show or switch the active data source",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selector, err := newSelector()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				fmt.Println(selector.Active())
				return nil
			}
			if err := selector.SetActive(args[0]); err != nil {
				return err
			}
			fmt.Printf("Active source set to %s\n", args[0])
			return nil
		},
	}
}

func newLogCommand() *cobra.Command {
	var (
		name     string
		size     int
		caffeine int
		perMl    float64
		preset   string
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record a drink",
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := intake.Draft{Name: name, Size: size, Caffeine: caffeine, Date: date}
			if cmd.Flags().Changed("per-ml") {
				draft.CaffeinePerMl = &perMl
			}
			if preset != "" {
				presetDrink, ok := intake.PresetByID(preset)
				if !ok {
					return fmt.Errorf("unknown preset %q", preset)
				}
				draft.Name = presetDrink.Name
				draft.Size = presetDrink.SizeMl
				draft.Caffeine = presetDrink.CaffeineMg
				draft.CaffeinePerMl = &presetDrink.CaffeinePerMl
				draft.Icon = &presetDrink.Icon
				draft.IsPreset = true
			}

			service, err := newService()
			if err != nil {
				return err
			}
			entry, err := service.CreateLog(cmd.Context(), "", draft)
			if err != nil {
				return err
			}
			fmt.Printf("Logged %s (%dmg) on %s [id %s]\n", entry.Name, entry.Caffeine, entry.Date, entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Drink name")
	cmd.Flags().IntVar(&size, "size", 0, "Volume in ml")
	cmd.Flags().IntVar(&caffeine, "caffeine", 0, "Caffeine in mg")
	cmd.Flags().Float64Var(&perMl, "per-ml", 0, "Caffeine concentration in mg/ml")
	cmd.Flags().StringVar(&preset, "preset", "", "Preset drink id (see 'caffeine presets')")
	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the day's entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := newService()
			if err != nil {
				return err
			}
			entries, err := service.ListLogs(cmd.Context(), "", resolveDate())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Printf("No entries for %s\n", resolveDate())
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tNAME\tSIZE\tCAFFEINE")
			for _, entry := range entries {
				fmt.Fprintf(writer, "%s\t%s\t%dml\t%dmg\n", entry.ID, entry.Name, entry.Size, entry.Caffeine)
			}
			return writer.Flush()
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entry by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := newService()
			if err != nil {
				return err
			}
			if err := service.DeleteLog(cmd.Context(), "", args[0]); err != nil {
				return err
			}
			fmt.Println("Deleted", args[0])
			return nil
		},
	}
}

func newSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the day's total against the daily limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := newService()
			if err != nil {
				return err
			}
			summary, err := service.DailySummary(cmd.Context(), "", resolveDate())
			if err != nil {
				return err
			}
			fmt.Printf("%s: %dmg of %dmg (%.0f%%, %s)\n",
				summary.Date, summary.TotalMg, summary.LimitMg, summary.Percent, summary.Band)
			if summary.Message != "" {
				fmt.Println(summary.Message)
			}
			return nil
		},
	}
}

func newPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the preset drinks",
		RunE: func(cmd *cobra.Command, args []string) error {
			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tNAME\tSIZE\tCAFFEINE")
			for _, preset := range intake.Presets() {
				fmt.Fprintf(writer, "%s\t%s %s\t%dml\t%dmg\n",
					preset.ID, preset.Icon, preset.Name, preset.SizeMl, preset.CaffeineMg)
			}
			return writer.Flush()
		},
	}
}

func newSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search Open Food Facts for a drink",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			searchClient := &openfoodfacts.Client{}
			products, err := searchClient.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(products) == 0 {
				fmt.Println("No products found")
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "NAME\tBRAND\tSIZE\tCAFFEINE/100ML")
			for _, product := range products {
				size := "-"
				if product.SizeMl != nil {
					size = fmt.Sprintf("%dml", *product.SizeMl)
				}
				caffeine := "-"
				if product.CaffeinePer100ml != nil {
					caffeine = fmt.Sprintf("%dmg", *product.CaffeinePer100ml)
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", product.Name, product.Brand, size, caffeine)
			}
			return writer.Flush()
		},
	}
}
