package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sony/gobreaker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/readaloud/internal/article"
	"codeberg.org/snonux/readaloud/internal/audio"
	"codeberg.org/snonux/readaloud/internal/batch"
	"codeberg.org/snonux/readaloud/internal/cli"
	"codeberg.org/snonux/readaloud/internal/library"
	"codeberg.org/snonux/readaloud/internal/models"
	"codeberg.org/snonux/readaloud/internal/playback"
	"codeberg.org/snonux/readaloud/internal/reader"
	"codeberg.org/snonux/readaloud/internal/render"
	"codeberg.org/snonux/readaloud/internal/segment"
)

type app struct {
	flags *cli.Flags
	out   io.Writer
	in    io.Reader
}

func (a *app) logger() (*zap.Logger, error) {
	logger, err := cli.NewLogger(a.flags.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func (a *app) runRead(cmd *cobra.Command, args []string) error {
	var sources []string
	switch {
	case a.flags.BatchFile != "":
		list, err := batch.ReadSourceList(a.flags.BatchFile)
		if err != nil {
			return err
		}
		sources = list
	case len(args) == 1:
		sources = args
	default:
		return errors.New("no source given: pass a URL, a file or - for stdin (see --help)")
	}

	logger, err := a.logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	provider, err := audio.NewProvider(cli.AudioConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to create speech provider: %w", err)
	}
	if err := provider.IsAvailable(); err != nil {
		return fmt.Errorf("speech provider %s is not available: %w", provider.Name(), err)
	}

	player, err := audio.NewExecPlayer(viper.GetString("audio.player"))
	if err != nil {
		return err
	}

	var history reader.History
	if !a.flags.NoHistory {
		store, err := library.Open(cli.HistoryPath())
		if err != nil {
			return err
		}
		defer store.Close()
		history = store
	}

	term := render.NewTerminal(a.out, viper.GetInt("display.width"))
	session := reader.NewSession(article.NewFetcher(), segment.SentenceSplitter{}, provider, player, history,
		reader.Options{Resume: viper.GetBool("history.resume")}, logger)
	defer session.Close()
	session.OnChange(a.printProgress(session, term, provider))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := 0
	for i, source := range sources {
		if len(sources) > 1 {
			fmt.Fprintf(a.out, "\n=== %d/%d: %s ===\n", i+1, len(sources), source)
		}

		err := a.readOne(ctx, session, term, source)
		if ctx.Err() != nil {
			st := session.State()
			fmt.Fprintf(a.out, "\nPaused at sentence %d of %d. Continue with --resume.\n", st.Cursor+1, st.Count)
			return nil
		}
		if err != nil {
			if len(sources) == 1 {
				return err
			}
			fmt.Fprintf(os.Stderr, "Error reading '%s': %v\n", source, err)
			failed++
		}
	}

	if len(sources) > 1 {
		fmt.Fprintf(a.out, "\nRead %d of %d articles\n", len(sources)-failed, len(sources))
	}
	return nil
}

// readOne plays source to the end. An interrupt pauses playback so the
// position is saved.
func (a *app) readOne(ctx context.Context, session *reader.Session, term *render.Terminal, source string) error {
	if err := session.Load(ctx, source); err != nil {
		return err
	}
	if title := session.Article().Title; title != "" {
		fmt.Fprintf(a.out, "%s\n\n", term.Title(title))
	}
	if err := session.Play(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(done)
		return session.Wait()
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			session.Pause()
			return gctx.Err()
		case <-done:
			return nil
		}
	})
	return g.Wait()
}

// printProgress shows the sentence being read with its neighbours
func (a *app) printProgress(session *reader.Session, term *render.Terminal, provider audio.Provider) func(playback.State) {
	return func(st playback.State) {
		sentences := session.Sentences()
		if st.Mode != playback.Playing || st.Cursor >= len(sentences) {
			fmt.Fprintln(a.out, term.Status(st))
			if notice := breakerNotice(provider); notice != "" && st.Err != nil {
				fmt.Fprintln(a.out, notice)
			}
			return
		}

		lo := max(0, st.Cursor-1)
		hi := min(len(sentences), st.Cursor+2)
		fmt.Fprintf(a.out, "%s\n%s\n\n", term.Status(st), term.Render(sentences[lo:hi], st.Cursor-lo))
	}
}

// breakerNotice explains a halt caused by the circuit breaker
func breakerNotice(provider audio.Provider) string {
	breaker, ok := provider.(*audio.BreakerProvider)
	if !ok {
		return ""
	}

	switch breaker.State() {
	case gobreaker.StateOpen:
		return fmt.Sprintf("%s keeps failing, synthesis is paused for a while", breaker.Name())
	case gobreaker.StateHalfOpen:
		return fmt.Sprintf("%s is being probed after repeated failures", breaker.Name())
	default:
		return ""
	}
}

func (a *app) runHistory(cmd *cobra.Command, args []string) error {
	store, err := library.Open(cli.HistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()

	if a.flags.Forget != "" {
		if _, err := store.Get(a.flags.Forget); err != nil {
			return fmt.Errorf("%s is not in the history", a.flags.Forget)
		}
		if err := store.Delete(a.flags.Forget); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Forgot %s\n", a.flags.Forget)
		return nil
	}

	entries, err := store.List(a.flags.HistoryLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "Nothing read yet")
		return nil
	}

	for _, e := range entries {
		progress := fmt.Sprintf("%d/%d", e.Cursor, e.Count)
		if e.Finished() {
			progress = "done"
		}
		title := e.Title
		if title == "" {
			title = e.Source
		}
		fmt.Fprintf(a.out, "%s  %-9s %s\n", e.UpdatedAt.Format("2006-01-02 15:04"), progress, title)
		if title != e.Source {
			fmt.Fprintf(a.out, "%27s%s\n", "", e.Source)
		}
	}
	return nil
}

func (a *app) runCache(cmd *cobra.Command, args []string) error {
	dir := cli.AudioConfig().CacheDir
	if dir == "" {
		fmt.Fprintln(a.out, "No synthesis cache configured (set audio.cache_dir)")
		return nil
	}

	if a.flags.ClearCache {
		if err := audio.ClearCache(dir); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Fprintf(a.out, "Cleared %s\n", dir)
		return nil
	}

	count, size, err := audio.CacheStats(dir)
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}
	fmt.Fprintf(a.out, "%s: %d clips, %.1f MiB\n", dir, count, float64(size)/(1<<20))
	return nil
}

func (a *app) runListModels(cmd *cobra.Command, args []string) error {
	lister := models.NewLister(cli.GetOpenAIKey())
	return lister.ListAvailableModels(cmd.Context())
}
