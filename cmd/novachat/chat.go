package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mahirxmc/nova-agent-2/internal/chatclient"
	"github.com/mahirxmc/nova-agent-2/internal/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message...]",
	Short: "Send a message, or start an interactive session",
	Long: `Send a single message when arguments are given. Without arguments,
read one message per line from stdin until EOF or "/quit".

Ctrl+C stops the reply that is streaming; a second Ctrl+C exits.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}
	out := newPrinter(cmd.OutOrStdout(), v.GetBool("PLAIN"))

	agentID := v.GetString("AGENT")
	budget, err := client.Budget(cmd.Context(), agentID)
	if err != nil {
		out.warn(fmt.Sprintf("could not fetch agents, using %s budget: %v", budget, err))
	}

	stream := client.Stream
	if strings.EqualFold(v.GetString("TRANSPORT"), transportWS) {
		stream = client.StreamWS
	}
	thread := chatclient.NewThread(stream, agentID, "", budget)

	if len(args) > 0 {
		return send(cmd.Context(), thread, strings.Join(args, " "), out)
	}

	out.header(agentID)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		out.prompt()
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}
		if err := send(cmd.Context(), thread, text, out); err != nil && !isReplyError(err) {
			return err
		}
	}
}

// send streams one reply, cancelling it on SIGINT.
func send(parent context.Context, thread *chatclient.Thread, text string, out *printer) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &replyRenderer{out: out}
	msg, err := thread.Send(ctx, text, r.update)
	if msg != nil {
		r.finish(msg.Snapshot())
	}
	return err
}

// isReplyError reports whether err already ended up in the rendered reply.
func isReplyError(err error) bool {
	var statusErr *chatclient.StatusError
	var remoteErr *chatclient.RemoteError
	return errors.As(err, &statusErr) ||
		errors.As(err, &remoteErr) ||
		errors.Is(err, chatclient.ErrRequestTimeout) ||
		errors.Is(err, chatclient.ErrStreamTimeout) ||
		errors.Is(err, context.Canceled)
}

// replyRenderer prints the reply text incrementally as snapshots arrive.
type replyRenderer struct {
	out   *printer
	shown string
}

func (r *replyRenderer) update(s chatclient.Snapshot) {
	if s.State.Terminal() || !strings.HasPrefix(s.Text, r.shown) {
		return
	}
	if rest := s.Text[len(r.shown):]; rest != "" {
		io.WriteString(r.out.w, r.out.reply(rest))
		r.shown = s.Text
	}
}

func (r *replyRenderer) finish(s chatclient.Snapshot) {
	// Terminal text extends what was shown unless an error replaced it.
	rest := s.Text
	if strings.HasPrefix(s.Text, r.shown) {
		rest = s.Text[len(r.shown):]
	}

	switch s.State {
	case domain.MessageStateCompleted:
		io.WriteString(r.out.w, r.out.reply(rest))
		fmt.Fprintln(r.out.w)
	case domain.MessageStateCancelled:
		fmt.Fprintln(r.out.w)
		r.out.warn("stopped")
	default:
		if r.shown != "" {
			fmt.Fprintln(r.out.w)
		}
		r.out.failure(strings.TrimSpace(rest))
	}
}
