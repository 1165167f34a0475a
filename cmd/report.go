package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	persistence "github.com/khanhnv2901/siteaudit/internal/infrastructure/persistence/json"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/render"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect saved audit reports",
}

var reportShowCmd = &cobra.Command{
	Use:   "show <label>",
	Short: "Print the summary of a saved run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		if appCtx == nil {
			return fmt.Errorf("application context not initialized")
		}

		label := args[0]
		if err := validateLabel(label); err != nil {
			return err
		}

		repo, err := persistence.NewReportRepository(appCtx.ResultsDir)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		rep, err := repo.Load(ctx, label)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch strings.ToLower(reportFormat) {
		case "", "text":
			return render.RenderText(out, rep)
		case "markdown", "md":
			return render.WriteMarkdown(out, rep)
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		default:
			return fmt.Errorf("unsupported format %q (use text, markdown or json)", reportFormat)
		}
	},
}

func init() {
	reportShowCmd.Flags().StringVar(&reportFormat, "format", "text", "output format: text, markdown or json")
	reportCmd.AddCommand(reportShowCmd)
}
