package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-go/pj-assistant/pkg/core/live"
	"github.com/vango-go/pj-assistant/pkg/core/types"
	"github.com/vango-go/pj-assistant/pkg/gateway/config"
)

const talkHelp = `commands:
  :open      start a voice call
  :close     end the call
  :like      rate the finished call positively
  :dislike   rate the finished call negatively
  :dismiss   hide the rating prompt
  :inbox     list notifications
  :quit      exit
anything else is sent as a text message`

func newTalkCmd(opts *rootOptions, deps appDeps) *cobra.Command {
	var autoOpen bool
	cmd := &cobra.Command{
		Use:   "talk",
		Short: "Talk to the assistant through the local microphone and speaker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := deps.validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg, logger, cleanup, err := setup(ctx, opts, deps, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cfg.RequireAPIKey(); err != nil {
				return err
			}
			return runTalk(ctx, cfg, logger, deps, cmd.InOrStdin(), cmd.OutOrStdout(), autoOpen)
		},
	}
	cmd.Flags().BoolVar(&autoOpen, "open", false, "start a voice call immediately")
	return cmd
}

func runTalk(ctx context.Context, cfg config.Config, logger *slog.Logger, deps appDeps, in io.Reader, out io.Writer, autoOpen bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := buildStack(ctx, cfg, logger, deps)
	if err != nil {
		return err
	}
	defer st.Close()
	a := st.assistant

	view := &transcriptView{out: out}
	view.render(a.Snapshot())
	fmt.Fprintln(out, talkHelp)

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-a.Updates():
				view.render(a.Snapshot())
			}
		}
	}()

	open := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.Open(ctx); errors.Is(err, live.ErrSessionBusy) {
				view.printf("» a call is already in progress")
			} else if err != nil {
				view.printf("» %v", err)
			}
		}()
	}
	if autoOpen {
		open()
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigCh:
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch cmd := strings.TrimSpace(line); cmd {
			case "":
			case ":open":
				open()
			case ":close":
				a.Close()
			case ":like", ":dislike":
				a.AnswerFeedback(ctx, cmd == ":like")
			case ":dismiss":
				a.DismissFeedback()
			case ":inbox":
				for _, n := range st.inbox.List() {
					view.printf("» [%s] %s: %s", n.Category, n.Title, n.Message)
				}
				st.inbox.MarkAllRead()
			case ":quit", ":q":
				return nil
			case ":help":
				view.printf("%s", talkHelp)
			default:
				a.SendTextMessage(cmd)
			}
		}
	}
}

// transcriptView prints what changed between consecutive snapshots.
type transcriptView struct {
	mu       sync.Mutex
	out      io.Writer
	started  bool
	phase    live.Phase
	status   string
	printed  int
	feedback bool
}

func (v *transcriptView) printf(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format+"\n", args...)
}

func (v *transcriptView) render(snap live.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.started || snap.Phase != v.phase {
		fmt.Fprintf(v.out, "» phase: %s\n", snap.Phase)
		v.phase = snap.Phase
	}
	if !v.started || snap.Status != v.status {
		fmt.Fprintf(v.out, "» %s\n", snap.Status)
		v.status = snap.Status
	}
	v.started = true

	if len(snap.Messages) < v.printed {
		v.printed = 0
	}
	for _, m := range snap.Messages[v.printed:] {
		speaker := "PJ"
		if m.Role == types.RoleUser {
			speaker = "você"
		}
		fmt.Fprintf(v.out, "%s: %s\n", speaker, m.Text)
	}
	v.printed = len(snap.Messages)

	if snap.FeedbackPrompt && !v.feedback {
		fmt.Fprintln(v.out, "» Gostou do atendimento? (:like / :dislike / :dismiss)")
	}
	v.feedback = snap.FeedbackPrompt
}
