package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/readaloud/internal/chat"
	"codeberg.org/snonux/readaloud/internal/cli"
)

func (a *app) runChat(cmd *cobra.Command, args []string) error {
	logger, err := a.logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := chat.NewBackend(ctx, cli.ChatConfig())
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Chatting with %s. Type /help for commands.\n", backend.Name())
	return a.chatLoop(ctx, chat.NewSession(backend, logger))
}

func (a *app) chatLoop(ctx context.Context, session *chat.Session) error {
	current := session.NewTab("").ID

	scanner := bufio.NewScanner(a.in)
	for {
		tab, err := session.Tab(current)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "\n[%s] > ", tab.Title)

		if !scanner.Scan() {
			fmt.Fprintln(a.out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "/") {
			next, quit, err := a.chatCommand(session, current, line)
			if err != nil {
				fmt.Fprintf(a.out, "%v\n", err)
			}
			if quit {
				return nil
			}
			current = next
			continue
		}
		if line == "" {
			continue
		}

		_, err = session.Send(ctx, current, line, func(chunk string) {
			fmt.Fprint(a.out, chunk)
		})
		fmt.Fprintln(a.out)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			fmt.Fprintf(a.out, "Error: %v\n", err)
		}
	}
}

// chatCommand runs a slash command and returns the tab to continue in
func (a *app) chatCommand(session *chat.Session, current, line string) (string, bool, error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return current, true, nil

	case "/new":
		return session.NewTab(arg).ID, false, nil

	case "/tabs":
		for i, t := range session.Tabs() {
			marker := " "
			if t.ID == current {
				marker = "*"
			}
			fmt.Fprintf(a.out, "%s %d. %s (%d messages)\n", marker, i+1, t.Title, len(t.Messages))
		}
		return current, false, nil

	case "/tab":
		tabs := session.Tabs()
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(tabs) {
			return current, false, fmt.Errorf("no tab %q, there are %d", arg, len(tabs))
		}
		return tabs[n-1].ID, false, nil

	case "/close":
		if err := session.Close(current); err != nil {
			return current, false, err
		}
		tabs := session.Tabs()
		if len(tabs) == 0 {
			return session.NewTab("").ID, false, nil
		}
		return tabs[len(tabs)-1].ID, false, nil

	case "/help":
		fmt.Fprintln(a.out, "/new [title]  /tab N  /tabs  /close  /quit")
		return current, false, nil

	default:
		return current, false, errors.New("unknown command, try /help")
	}
}
