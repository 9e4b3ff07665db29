package admin

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mrermin/ermin/app"
	"github.com/mrermin/ermin/internal/cli"
	"github.com/mrermin/ermin/store"
)

// NewChatsCmd instantiates and returns the chats command and its subcommands.
func NewChatsCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Manage the chats stored by the backend",
	}
	cmd.AddCommand(newListChatsCmd(a), newDeleteChatCmd(a))
	return cmd
}

func newListChatsCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your chats",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			token, err := storedToken(a)
			cobra.CheckErr(err)

			chats, err := a.Backend.ListChats(ctx, token)
			cobra.CheckErr(err)
			cli.Title("Chats (%d)", len(chats))
			for _, chat := range chats {
				last := "-"
				if activity := chat.LastActivity(); !activity.IsZero() {
					last = activity.Local().Format("2006-01-02 15:04")
				}
				fmt.Printf("%-36s  %-16s  %3d  %s\n", chat.ID, last, len(chat.Messages), chat.Title)
			}
			cli.Separator()
		},
	}
}

func newDeleteChatCmd(a *app.App) *cobra.Command {
	var opts struct {
		Yes bool
	}

	cmd := &cobra.Command{
		Use:   "delete <chat-id>",
		Short: "Delete a chat",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			token, err := storedToken(a)
			cobra.CheckErr(err)

			chat, err := a.Backend.GetChat(ctx, token, args[0])
			cobra.CheckErr(err)
			if !opts.Yes && !cli.QueryUser(fmt.Sprintf("Delete chat %q?", chat.Title)) {
				return
			}
			err = a.Backend.DeleteChat(ctx, token, chat.ID)
			cobra.CheckErr(errors.Wrapf(err, "deleting chat %s", chat.ID))
			cli.Info("Deleted %s\n", chat.ID)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Skip the confirmation")

	return cmd
}

// storedToken returns the access token of the stored session.
func storedToken(a *app.App) (string, error) {
	session, err := a.Store.Load()
	if errors.Is(err, store.ErrAbsent) {
		return "", errors.New("not logged in, run 'ermin login --accept-privacy' first")
	}
	if err != nil {
		return "", err
	}
	return session.Token, nil
}
