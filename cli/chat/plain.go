package chat

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"

	"github.com/mrermin/ermin/app"
	session "github.com/mrermin/ermin/chat"
	"github.com/mrermin/ermin/internal/cli"
	"github.com/mrermin/ermin/internal/markdown"
	"github.com/mrermin/ermin/internal/paylater"
	"github.com/mrermin/ermin/internal/premium"
	"github.com/mrermin/ermin/internal/types"
)

const plainHelp = `/new              neuer Chat
/chats            Chats anzeigen
/open <n>         Chat öffnen
/delete <n>       Chat löschen
/model [id]       Modelle anzeigen oder wählen
/premium          Premium-Pläne anzeigen
/quit             beenden
Eine Zeile mit \ am Ende wird auf der nächsten Zeile fortgesetzt.
`

// plain runs a session in line mode.
type plain struct {
	ctx      context.Context
	app      *app.App
	manager  *session.Manager
	renderer *markdown.Renderer
}

func runPlain(ctx context.Context, a *app.App, manager *session.Manager, guest bool, model string) error {
	renderer, err := markdown.NewRenderer(cli.Width())
	if err != nil {
		return err
	}
	p := &plain{ctx: ctx, app: a, manager: manager, renderer: renderer}

	if guest {
		manager.LoadModels(ctx)
		manager.EnterGuest()
	} else {
		manager.Startup(ctx)
		if manager.Snapshot().State == session.StateLoginRequired {
			cli.Info("Keine gespeicherte Sitzung. Anmeldung mit 'ermin login --accept-privacy'. Weiter als Gast.\n")
			manager.EnterGuest()
		}
	}
	if model != "" && !manager.SelectModel(model) {
		cli.Error("Modell %s wird nicht angeboten.\n", model)
	}

	snapshot := manager.Snapshot()
	if user := snapshot.User; user != nil {
		cli.Info("👤 Angemeldet als: %s <%s>\n", user.Name, user.Email)
	}
	cli.Info("Modell: %s. /help für Befehle.\n", p.modelLabel(snapshot))
	p.printChat(snapshot.ActiveChat())

	for {
		input, err := cli.PromptUser(a.Config.HistoryFile)
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading input")
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := p.command(input)
			if err != nil {
				cli.Error("Fehler: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}
		p.send(input)
	}
}

func (p *plain) send(input string) {
	snapshot := p.manager.Snapshot()
	before := 0
	if active := snapshot.ActiveChat(); active != nil {
		before = len(active.Messages)
	}

	cli.Info("Mr Ermin tippt...\n")
	if err := p.manager.Send(p.ctx, input); err != nil {
		cli.Error("Fehler: %v\n", err)
		return
	}

	// The user message is already on screen.
	active := p.manager.Snapshot().ActiveChat()
	if active == nil || len(active.Messages) <= before+1 {
		return
	}
	for _, message := range active.Messages[before+1:] {
		p.printMessage(message)
	}
}

// command runs a slash command. Returns true if the loop should end.
func (p *plain) command(input string) (bool, error) {
	name, argument, _ := strings.Cut(input, " ")
	argument = strings.TrimSpace(argument)

	switch name {
	case "/quit", "/exit":
		return true, nil

	case "/help":
		cli.Info(plainHelp)

	case "/new":
		created, err := p.manager.NewChat(p.ctx)
		if err != nil {
			return false, err
		}
		p.printChat(created)

	case "/chats":
		p.printChats()

	case "/open":
		chat, err := p.chatAt(argument)
		if err != nil {
			return false, err
		}
		if err := p.manager.SelectChat(chat.ID); err != nil {
			return false, err
		}
		p.printChat(p.manager.Snapshot().ActiveChat())

	case "/delete":
		chat, err := p.chatAt(argument)
		if err != nil {
			return false, err
		}
		if err := p.manager.RequestDelete(chat.ID); err != nil {
			return false, err
		}
		if !cli.QueryUser(session.DeleteConfirmationText) {
			p.manager.CancelDelete()
			return false, nil
		}
		if err := p.manager.ConfirmDelete(p.ctx); err != nil {
			return false, err
		}
		p.printChats()

	case "/model":
		if argument == "" {
			snapshot := p.manager.Snapshot()
			for _, model := range snapshot.Models {
				marker := "  "
				if model.ID == snapshot.SelectedModel {
					marker = "* "
				}
				cli.UserInput("%s%s\n", marker, model.ID)
			}
			return false, nil
		}
		if !p.manager.SelectModel(argument) {
			return false, fmt.Errorf("unknown model %q", argument)
		}

	case "/premium":
		p.printPremium()

	default:
		return false, fmt.Errorf("unknown command %s, see /help", name)
	}
	return false, nil
}

// chatAt returns the chat at the 1-based position of the /chats listing.
func (p *plain) chatAt(argument string) (*types.Chat, error) {
	index, err := strconv.Atoi(argument)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing chat number %q", argument)
	}
	chats := p.manager.Snapshot().Chats
	if index < 1 || index > len(chats) {
		return nil, fmt.Errorf("no chat number %d", index)
	}
	return chats[index-1], nil
}

func (p *plain) modelLabel(snapshot *session.Snapshot) string {
	if snapshot.SelectedModel == "" {
		return "keins"
	}
	return snapshot.SelectedModel
}

func (p *plain) printChats() {
	snapshot := p.manager.Snapshot()
	cli.Title("Chats")
	for i, chat := range snapshot.Chats {
		marker := " "
		if chat.ID == snapshot.ActiveChatID {
			marker = "*"
		}
		cli.UserInput("%s %2d. %s\n", marker, i+1, chat.Title)
	}
	cli.Separator()
}

func (p *plain) printChat(chat *types.Chat) {
	if chat == nil {
		return
	}
	cli.Title("%s", chat.Title)
	for _, message := range chat.Messages {
		p.printMessage(message)
	}
}

func (p *plain) printMessage(message *types.Message) {
	timestamp := message.Timestamp.Local().Format("15:04")
	if message.IsUser() {
		cli.UserInput("[%s] Du: %s\n", timestamp, message.Content)
		return
	}
	if strings.HasPrefix(message.Content, session.ErrorPrefix) {
		cli.Error("[%s] %s\n", timestamp, message.Content)
		return
	}
	cli.AIOutput("[%s] Mr Ermin:\n", timestamp)
	fmt.Println(p.renderer.Render(message.Content))
}

func (p *plain) printPremium() {
	cli.Title("Mr Ermin Premium")
	capability := p.app.NewPayLater().Probe(p.ctx)
	for _, plan := range premium.Plans() {
		cli.AIOutput("%s: %s", plan.Label, plan.PriceLabel())
		if label := plan.SavingsLabel(); label != "" {
			cli.AIOutput(" (%s, %s/Monat)", label, premium.FormatEuro(plan.PerMonth()))
		}
		fmt.Println()
		for _, feature := range plan.Features {
			cli.UserInput("  ✓ %s\n", feature)
		}
		cli.Info("  %s\n", paylater.Message(plan.Price, capability))
	}
	cli.Info("%s\n", paylater.Disclaimer)
	if user := p.manager.Snapshot().User; user != nil {
		cli.Info("Konto: %s\n", user.Email)
	}
	cli.Separator()
}
