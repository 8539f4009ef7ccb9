package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/flashdeck/internal/catalog"
	"github.com/conorfennell/flashdeck/internal/config"
	"github.com/conorfennell/flashdeck/internal/defaults"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/storage"
	"github.com/conorfennell/flashdeck/internal/view"
	"github.com/conorfennell/flashdeck/internal/web"
)

const usage = `Usage: flashdeck [flags] <command> [args]

Commands:
  serve               Serve the JSON API
  list                Print the visible cards
  add <name>          Add a card (--image, --audio, --color, --set)
  delete <id>         Delete a card
  add-set <name>      Add a set

Flags:
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "flashdeck:", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Define and parse command-line flags
	fs := config.Flags("flashdeck")
	image := fs.String("image", "", "add: image URL or data URI")
	audio := fs.String("audio", "", "add: audio URL or data URI")
	color := fs.String("color", "", "add: background color")
	sets := fs.StringSlice("set", nil, "add: set id (repeatable)")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		return errors.New("no command given")
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	logger := cfg.Log.Logger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the database lazily; Load opens it and falls back when it can't
	db := storage.New(cfg.DB.Path, storage.WithOpenTimeout(cfg.DB.OpenTimeout))
	defer db.Close()

	mode, err := view.ParseSortMode(cfg.Sort)
	if err != nil {
		return err
	}
	cat := catalog.New(db, defaults.Build(time.Now().UnixMilli()),
		catalog.WithLogger(logger),
		catalog.WithSortMode(mode),
	)

	// 3. Reconcile stored cards with the starter deck
	if err := cat.Load(ctx); err != nil {
		if errors.Is(err, catalog.ErrLoadAbandoned) {
			return err
		}
		logger.Warn("Continuing with starter cards", "error", err)
	}

	// 4. Run the command
	switch cmd, rest := args[0], args[1:]; cmd {
	case "serve":
		return serve(ctx, cat, cfg.HTTP.Addr, logger)
	case "list":
		return list(cat)
	case "add":
		if len(rest) != 1 {
			return errors.New("usage: flashdeck add <name>")
		}
		card, err := cat.SaveCard(ctx, catalog.CardInput{
			Name:            rest[0],
			ImageURL:        *image,
			AudioURL:        *audio,
			BackgroundColor: *color,
			SetIDs:          toSetIDs(*sets),
		})
		if err != nil {
			return err
		}
		fmt.Println(card.ID)
		return nil
	case "delete":
		if len(rest) != 1 {
			return errors.New("usage: flashdeck delete <id>")
		}
		return cat.DeleteCard(ctx, domain.CardID(rest[0]))
	case "add-set":
		if len(rest) != 1 {
			return errors.New("usage: flashdeck add-set <name>")
		}
		set, ok, err := cat.AddSet(ctx, rest[0])
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("set name is required")
		}
		fmt.Println(set.ID)
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func serve(ctx context.Context, cat *catalog.Catalog, addr string, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           web.NewServer(cat, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func list(cat *catalog.Catalog) error {
	if n := cat.Notice(); n != "" {
		fmt.Fprintln(os.Stderr, n)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSETS")
	for _, c := range cat.FilteredCards() {
		fmt.Fprintf(tw, "%s\t%s\t%v\n", c.ID, c.Name, c.SetIDs)
	}
	return tw.Flush()
}

func toSetIDs(ss []string) []domain.SetID {
	ids := make([]domain.SetID, 0, len(ss))
	for _, s := range ss {
		ids = append(ids, domain.SetID(s))
	}
	return ids
}
