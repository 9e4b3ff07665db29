package admin

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrermin/ermin/app"
	"github.com/mrermin/ermin/internal/cli"
)

// NewModelsCmd instantiates and returns the models command.
func NewModelsCmd(a *app.App) *cobra.Command {
	var opts struct {
		PageSize int
	}

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available models",
		Long:  "Resolve the inference endpoint and list the models it offers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()

			endpoint, err := a.Inference.LoadEndpoint(ctx)
			cobra.CheckErr(err)
			models, err := a.Inference.ListModels(ctx)
			cobra.CheckErr(err)
			cli.Info("Endpoint: %s\n", endpoint)

			pageNumber := 1
			for start := 0; start < len(models); start += opts.PageSize {
				end := min(start+opts.PageSize, len(models))
				cli.Title("Available Models - Page %d (%d models)", pageNumber, end-start)
				for _, model := range models[start:end] {
					fmt.Println(model.ID)
				}
				fmt.Println()

				// Check if there are more pages
				if end == len(models) {
					break
				}

				// Ask user if they want to continue
				cli.Separator()
				if !cli.QueryUserDefaultYes("Load next page?") {
					return
				}
				pageNumber++
				fmt.Println()
			}
			cli.Separator()
			cli.Title("End of Results")
		},
	}

	cmd.Flags().IntVar(&opts.PageSize, "page-size", 20, "Models per page")

	return cmd
}
