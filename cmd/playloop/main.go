package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/mmcdole/playloop/internal/adapter"
	"github.com/mmcdole/playloop/internal/catalog"
	"github.com/mmcdole/playloop/internal/domain"
	"github.com/mmcdole/playloop/internal/library"
	"github.com/mmcdole/playloop/internal/nav"
	"github.com/mmcdole/playloop/internal/search"
	"github.com/mmcdole/playloop/internal/store"
	"github.com/mmcdole/playloop/internal/tui"
	"github.com/mmcdole/playloop/internal/tui/styles"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: playloop [#fragment] | history [query] | playlists\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("playloop %s\n", Version)
		return
	}

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := adapter.LoadConfig(adapter.DefaultConfigDir())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := adapter.SetupLogger(cfg.Logging)
	if err != nil {
		logger = adapter.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	db, err := store.Open(cfg.Storage.DataDir, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	playlists := library.NewPlaylists(db, logger)
	history := library.NewHistory(db, logger)

	cmd, rest := parseCommand(args)
	switch cmd {
	case "history":
		printHistory(os.Stdout, history.Search(strings.Join(rest, " ")), time.Now())
		return nil
	case "playlists":
		printPlaylists(os.Stdout, playlists.List())
		return nil
	}

	logger.Info("starting playloop", "version", Version)

	apiKey, err := resolveAPIKey(cfg.Catalog.APIKey, db, promptAPIKey)
	if err != nil {
		return err
	}

	client := catalog.NewClient(cfg.Catalog.BaseURL, apiKey, cfg.Catalog.Timeout, logger)
	searchSvc := search.NewService(client, cfg.Catalog.Region, logger)

	if err := checkAPIKey(searchSvc, db); err != nil {
		return err
	}

	var resolver adapter.URLResolver
	if cfg.Player.ResolveStreams {
		resolver = adapter.NewStreamResolver(logger)
	}
	launcher := adapter.NewLauncher(cfg.Player, resolver, logger)

	engine := nav.New(nav.Deps{
		Search:    searchSvc,
		Comments:  client,
		Playlists: playlists,
		History:   history,
		Players:   launcher,
		Logger:    logger,
	})
	defer engine.Close()

	if !styles.ApplyTheme(cfg.UI.Theme) {
		logger.Warn("unknown theme, using default", "theme", cfg.UI.Theme)
	}

	model := tui.NewModel(engine, rest[0])
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	)
	engine.SetRenderer(tui.NewProgramRenderer(p))

	logger.Info("starting TUI", "fragment", rest[0])

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// parseCommand splits the arguments into a subcommand and its operands. The
// TUI command always carries exactly one fragment.
func parseCommand(args []string) (string, []string) {
	if len(args) > 0 {
		switch args[0] {
		case "history", "playlists":
			return args[0], args[1:]
		}
	}

	fragment := "#home"
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		fragment = strings.TrimSpace(args[0])
		if !strings.HasPrefix(fragment, "#") {
			fragment = "#" + fragment
		}
	}
	return "tui", []string{fragment}
}

type credentialStore interface {
	GetAPIKey() (string, bool)
	SaveAPIKey(key string) error
	DeleteAPIKey() error
}

// resolveAPIKey prefers the configured key, then the stored one, and finally
// prompts and persists the answer
func resolveAPIKey(configured string, creds credentialStore, prompt func() (string, error)) (string, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return key, nil
	}
	if key, ok := creds.GetAPIKey(); ok && key != "" {
		return key, nil
	}

	key, err := prompt()
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("an API key is required")
	}
	if err := creds.SaveAPIKey(key); err != nil {
		return "", fmt.Errorf("failed to save API key: %w", err)
	}
	return key, nil
}

// checkAPIKey makes one cheap catalog call so a rejected key is reported
// before the TUI starts. A rejected stored key is forgotten.
func checkAPIKey(svc *search.Service, creds credentialStore) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_, err := svc.Trending(ctx, 1)
	if err == nil || !catalog.IsAuthError(err) {
		return nil
	}
	if delErr := creds.DeleteAPIKey(); delErr != nil {
		slog.Error("failed to delete API key", "error", delErr)
	}
	return fmt.Errorf("API key rejected, run playloop again to enter a new one: %w", err)
}

func promptAPIKey() (string, error) {
	fmt.Println()
	fmt.Println("Welcome to PlayLoop!")
	fmt.Println()
	fmt.Print("Enter your YouTube Data API key: ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		return string(b), err
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return line, nil
}

func printHistory(w io.Writer, entries []domain.HistoryEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history")
		return
	}
	for _, e := range entries {
		age := domain.TimeAgo(e.WatchedAt, now)
		fmt.Fprintf(w, "%-12s %s · %s (%s)\n", age, e.Video.Title, e.Video.Channel, e.Video.ID)
	}
}

func printPlaylists(w io.Writer, playlists []domain.Playlist) {
	if len(playlists) == 0 {
		fmt.Fprintln(w, "No playlists")
		return
	}
	for _, p := range playlists {
		noun := "videos"
		if len(p.Videos) == 1 {
			noun = "video"
		}
		fmt.Fprintf(w, "%s (%d %s)\n", p.Name, len(p.Videos), noun)
	}
}
