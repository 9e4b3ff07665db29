package chat

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.design/x/clipboard"

	"github.com/mrermin/ermin/app"
	"github.com/mrermin/ermin/cli/tui"
	"github.com/mrermin/ermin/internal/debug"
)

const modelCompletionTimeout = 2 * time.Second

var modelNames []string

// NewCmd instantiates and returns the chat command.
func NewCmd(a *app.App) *cobra.Command {
	var opts struct {
		Guest bool
		Plain bool
		Model string
	}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with Mr Ermin",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			manager := a.NewManager()

			if opts.Plain {
				return runPlain(ctx, a, manager, opts.Guest, opts.Model)
			}

			clipboardErr := clipboard.Init()
			if clipboardErr != nil {
				debug.GetLogger().Warn("clipboard unavailable", "err", clipboardErr)
			}
			signIn := a.NewSignIn()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				signIn.Unmount(ctx)
			}()

			tuiOpts := &tui.Opts{
				Guest:     opts.Guest,
				Model:     opts.Model,
				History:   a.Store,
				Clipboard: clipboardErr == nil,
			}
			m, err := tui.New(ctx, tuiOpts, manager, signIn, a.NewPayLater())
			if err != nil {
				return err
			}

			// Create the Bubble Tea program
			p := tea.NewProgram(
				m,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithMouseCellMotion(),
				tea.WithReportFocus(),
			)

			// Set the program reference for async message sending
			m.SetProgram(p)

			if _, err := p.Run(); err != nil {
				return errors.Wrap(err, "running chat")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Guest, "guest", false, "Skip the login and chat as a guest")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "Use a line-mode prompt instead of the full screen UI")
	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "Model to select once the models are loaded")

	cmd.RegisterFlagCompletionFunc("model", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(modelNames) == 0 {
			err := getModelNames(cmd.Context(), a)
			cobra.CheckErr(err)
		}
		return filterModels(modelNames, toComplete), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func filterModels(models []string, prefix string) []string {
	if prefix == "" {
		return models
	}

	var matches []string
	lowerPrefix := strings.ToLower(prefix)

	for _, model := range models {
		if strings.Contains(strings.ToLower(model), lowerPrefix) {
			matches = append(matches, model)
		}
	}

	return matches
}

func getModelNames(ctx context.Context, a *app.App) error {
	ctx, cancel := context.WithTimeout(ctx, modelCompletionTimeout)
	defer cancel()

	if _, err := a.Inference.LoadEndpoint(ctx); err != nil {
		return err
	}
	models, err := a.Inference.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, model := range models {
		modelNames = append(modelNames, model.ID)
	}
	return nil
}
