package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"bar-inventory/internal/app"
	"bar-inventory/internal/core/ingredient"
	"bar-inventory/internal/infrastructure/config"
	"bar-inventory/internal/pkg/common"

	"github.com/spf13/cobra"
)

// appLoader 建立服務；測試時替換
type appLoader func() (*app.App, error)

func loadApp() (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

type cli struct {
	load      appLoader
	app       *app.App
	jsonOut   bool
	verbose   bool
	favorites []string
}

func newRootCmd(load appLoader) *cobra.Command {
	c := &cli{load: load}

	rootCmd := &cobra.Command{
		Use:           "barctl",
		Short:         "Query bar inventories and cocktail matches from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				if err := common.InitLogger("debug"); err != nil {
					return err
				}
			}
			a, err := c.load()
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			c.app = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.app != nil {
				_ = c.app.Close()
			}
			common.Sync()
		},
	}
	rootCmd.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Write debug logs to logs/app.log and stdout")

	tenantsCmd := &cobra.Command{
		Use:   "tenants",
		Short: "List configured bars",
		Args:  cobra.NoArgs,
		RunE:  c.runTenants,
	}

	inventoryCmd := &cobra.Command{
		Use:   "inventory [tenant]",
		Short: "List the bottles of a bar",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runInventory,
	}

	availableCmd := &cobra.Command{
		Use:   "available [tenant]",
		Short: "List the drinks a bar can make right now",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runAvailable,
	}
	availableCmd.Flags().StringSliceVar(&c.favorites, "favorite", nil, "Favorited drink IDs (repeatable)")

	matchCmd := &cobra.Command{
		Use:   "match [tenant] [bottle-id]",
		Short: "Find drinks that use a bottle; Ctrl-C stops the search and prints what was found",
		Args:  cobra.ExactArgs(2),
		RunE:  c.runMatch,
	}
	matchCmd.Flags().StringSliceVar(&c.favorites, "favorite", nil, "Favorited drink IDs (repeatable)")

	normalizeCmd := &cobra.Command{
		Use:   "normalize [ingredient...]",
		Short: "Show the normalized form, synonyms and children of ingredient names",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.runNormalize,
	}

	rootCmd.AddCommand(tenantsCmd, inventoryCmd, availableCmd, matchCmd, normalizeCmd)
	return rootCmd
}

func (c *cli) printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) runTenants(cmd *cobra.Command, args []string) error {
	tenants := c.app.Registry.Tenants()
	if c.jsonOut {
		return c.printJSON(cmd.OutOrStdout(), tenants)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tBAR\tCOMMON\tRANDOM\tSAMPLE")
	for _, t := range tenants {
		fmt.Fprintf(tw, "%s\t%s\t%v\t%v\t%v\n", t.Slug, t.BarName, t.IncludeCommonDrinks, t.IncludeRandomCocktails, t.IsSampleData)
	}
	return tw.Flush()
}

func (c *cli) runInventory(cmd *cobra.Command, args []string) error {
	svc, err := c.app.Registry.Service(args[0])
	if err != nil {
		return err
	}
	bottles, err := svc.Inventory(cmd.Context())
	if err != nil {
		return err
	}
	if c.jsonOut {
		return c.printJSON(cmd.OutOrStdout(), bottles)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBASE\tSTATE\tIN STOCK\tTAGS")
	for _, b := range bottles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\t%s\n", b.ID, b.Name, b.BaseSpirit, b.BottleState, b.InStock, strings.Join(b.Tags, ", "))
	}
	return tw.Flush()
}

func (c *cli) runAvailable(cmd *cobra.Command, args []string) error {
	svc, err := c.app.Registry.Service(args[0])
	if err != nil {
		return err
	}
	drinks, err := svc.AvailableDrinks(cmd.Context(), c.favorites)
	if err != nil {
		return err
	}
	if c.jsonOut {
		return c.printJSON(cmd.OutOrStdout(), drinks)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSOURCE\tFAVORITE")
	for _, d := range drinks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", d.ID, d.Name, d.Source, d.Favorited)
	}
	return tw.Flush()
}

func (c *cli) runMatch(cmd *cobra.Command, args []string) error {
	svc, err := c.app.Registry.Service(args[0])
	if err != nil {
		return err
	}

	// Ctrl-C 要求停止搜尋，仍輸出已找到的結果
	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
	defer stop()

	res, err := svc.FindMatches(ctx, "", args[1], c.favorites)
	if err != nil {
		return err
	}
	if c.jsonOut {
		return c.printJSON(cmd.OutOrStdout(), res)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, res.Heading)
	if res.RateLimited {
		fmt.Fprintln(out, "External search was rate limited; results may be incomplete.")
	}
	if res.Stopped {
		fmt.Fprintln(out, "Search stopped early.")
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAVAILABLE\tSTAGE\tTERM\tSOURCE")
	for _, d := range res.Drinks {
		fmt.Fprintf(tw, "%s\t%s\t%.0f%%\t%s\t%s\t%s\n", d.ID, d.Name, d.Availability.Ratio, d.MatchStage, d.MatchedTerm, d.Source)
	}
	return tw.Flush()
}

func (c *cli) runNormalize(cmd *cobra.Command, args []string) error {
	type entry struct {
		Input      string   `json:"input"`
		Normalized string   `json:"normalized"`
		Synonyms   []string `json:"synonyms"`
		Children   []string `json:"children"`
	}

	n := c.app.Normalizer
	entries := make([]entry, 0, len(args))
	for _, arg := range args {
		entries = append(entries, entry{
			Input:      arg,
			Normalized: ingredient.Normalize(arg),
			Synonyms:   n.SynonymsOf(arg),
			Children:   n.ChildrenOf(arg),
		})
	}
	if c.jsonOut {
		return c.printJSON(cmd.OutOrStdout(), entries)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INPUT\tNORMALIZED\tSYNONYMS\tCHILDREN")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Input, e.Normalized, strings.Join(e.Synonyms, ", "), strings.Join(e.Children, ", "))
	}
	return tw.Flush()
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
