package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mrermin/ermin/admin"
	"github.com/mrermin/ermin/app"
	"github.com/mrermin/ermin/cli/chat"
	"github.com/mrermin/ermin/internal/configuration"
	"github.com/mrermin/ermin/internal/debug"
	"github.com/mrermin/ermin/webserver"
)

var rootCmd = &cobra.Command{
	Use:     "ermin",
	Short:   "Mr Ermin in the terminal",
	Version: "1.0",
}

func main() {
	config, err := configuration.Parse(configuration.DefaultPath)
	cobra.CheckErr(err)
	debug.SetLogFile(config.LogFile)

	a, err := app.New(config)
	cobra.CheckErr(err)

	rootCmd.AddCommand(chat.NewCmd(a))
	rootCmd.AddCommand(admin.NewLoginCmd(a))
	rootCmd.AddCommand(admin.NewLogoutCmd(a))
	rootCmd.AddCommand(admin.NewChatsCmd(a))
	rootCmd.AddCommand(admin.NewModelsCmd(a))
	rootCmd.AddCommand(admin.NewVerifyEmailCmd(a))
	rootCmd.AddCommand(webserver.NewServeCmd(a))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = rootCmd.ExecuteContext(ctx)
	stop()
	// The store is closed before exiting since os.Exit skips deferred calls.
	a.Close()
	if err != nil {
		os.Exit(1)
	}
}
