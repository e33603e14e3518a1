package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/DaanHessen/chromium-runner/internal/engine"
	"github.com/DaanHessen/chromium-runner/internal/form"
	"github.com/DaanHessen/chromium-runner/internal/store"
	"github.com/DaanHessen/chromium-runner/internal/text"
	"github.com/DaanHessen/chromium-runner/internal/ui"
	"github.com/DaanHessen/chromium-runner/internal/util"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("CHROMIUM_RUNNER_CONFIG", util.DefaultConfigPath), "Browser config JSON file")
	dsn := flag.String("dsn", os.Getenv("DATABASE_URL"), "PostgreSQL DSN for launch history (optional)")
	theme := flag.String("theme", "", "UI theme: catppuccin|dracula|gruvbox|solarized_light")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "chromium-runner [-config path] [-dsn DSN] [-theme name] [validate|preview|run|history|migrate up|down|version]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := util.Config{
		ConfigPath: *configPath,
		DSN:        *dsn,
		Theme:      *theme,
		Debug:      os.Getenv("CHROMIUM_RUNNER_DEBUG") == "1",
		Version:    version,
	}
	ctx := context.Background()

	args := flag.Args()
	if len(args) > 0 {
		switch args[0] {
		case "version":
			fmt.Println("chromium-runner", version)
		case "validate":
			validate(cfg)
		case "preview":
			preview(cfg)
		case "run":
			run(ctx, cfg)
		case "history":
			history(ctx, cfg)
		case "migrate":
			migrateCmd(ctx, cfg, args[1:])
		default:
			flag.Usage()
			os.Exit(2)
		}
		return
	}

	if cfg.Debug {
		f, err := tea.LogToFile("debug.log", "debug")
		if err != nil {
			log.Fatalf("debug log: %v", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	repo, closeDB := openHistory(ctx, cfg)
	defer closeDB()

	ctl := newController(repo)
	_, loadErr := ctl.Load(cfg.ConfigPath)
	if errors.Is(loadErr, fs.ErrNotExist) {
		// start from an empty document; ctrl+s creates the file
		ctl.Open(cfg.ConfigPath, &engine.BrowserConfig{})
		loadErr = fmt.Errorf("%s does not exist; press b to set the browser path", cfg.ConfigPath)
	}
	if err := ui.Run(ctx, ctl, repo, cfg, loadErr); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal(err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newController(repo *store.HistoryRepo) *form.Controller {
	opts := []form.Option{}
	if repo != nil {
		opts = append(opts, form.WithRecorder(repo))
	}
	return form.NewController(opts...)
}

// openHistory applies migrations and opens the history repo when a DSN is
// configured. Failures disable history rather than aborting.
func openHistory(ctx context.Context, cfg util.Config) (*store.HistoryRepo, func()) {
	noop := func() {}
	if !cfg.HistoryEnabled() {
		return nil, noop
	}
	mig, err := store.NewMigrator(cfg.DSN)
	if err != nil {
		log.Printf("history disabled: %v", err)
		return nil, noop
	}
	migCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := mig.Up(migCtx); err != nil && !errors.Is(err, store.ErrNoChange) {
		log.Printf("history disabled: migrations failed: %v", err)
		return nil, noop
	}
	db, err := store.Open(ctx, cfg)
	if err != nil {
		log.Printf("history disabled: %v", err)
		return nil, noop
	}
	return store.NewHistoryRepo(db), func() { db.Close() }
}

func renderer() text.Renderer {
	plain := text.NewPlainRenderer()
	r, err := text.NewGlamourRenderer("auto", 100)
	if err != nil {
		return plain
	}
	return text.WithFallback(r, plain)
}

func printDoc(md string) {
	out, err := renderer().Render(md)
	if err != nil {
		out = md
	}
	fmt.Print(out)
}

func validate(cfg util.Config) {
	doc, err := store.LoadConfig(cfg.ConfigPath)
	if err != nil {
		log.Fatal(err)
	}
	errs := doc.Validate()
	printDoc(text.ValidationDoc(cfg.ConfigPath, errs))
	if len(errs) > 0 {
		os.Exit(1)
	}
}

func preview(cfg util.Config) {
	ctl := form.NewController()
	if _, err := ctl.Load(cfg.ConfigPath); err != nil && !isValidation(err) {
		log.Fatal(err)
	}
	cmd, err := ctl.Command()
	printDoc(text.PreviewDoc(ctl.Config(), cmd, err))
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg util.Config) {
	repo, closeDB := openHistory(ctx, cfg)
	defer closeDB()
	ctl := newController(repo)
	if _, err := ctl.Load(cfg.ConfigPath); err != nil && !isValidation(err) {
		log.Fatal(err)
	}
	proc, err := ctl.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("started %s (pid %d)\n", proc.Argv[0], proc.PID)
}

func history(ctx context.Context, cfg util.Config) {
	if !cfg.HistoryEnabled() {
		log.Fatal(store.ErrHistoryDisabled)
	}
	db, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	recs, err := store.NewHistoryRepo(db).Recent(ctx, 50)
	if err != nil {
		log.Fatal(err)
	}
	printDoc(text.HistoryDoc(recs))
}

func migrateCmd(ctx context.Context, cfg util.Config, args []string) {
	if len(args) < 1 {
		log.Fatal("migrate requires 'up' or 'down'")
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	migrator, err := store.NewMigrator(cfg.DSN)
	if err != nil {
		log.Fatal(err)
	}
	switch args[0] {
	case "up":
		if err := migrator.Up(ctx); err != nil && !errors.Is(err, store.ErrNoChange) {
			log.Fatal(err)
		}
		fmt.Println("Migrations applied")
	case "down":
		if err := migrator.Down(ctx); err != nil && !errors.Is(err, store.ErrNoChange) {
			log.Fatal(err)
		}
		fmt.Println("Migrations rolled back")
	default:
		log.Fatal("unknown migrate action; use up|down")
	}
}

// isValidation reports whether err is the per-entry report from Load, which
// still leaves a usable config behind.
func isValidation(err error) bool {
	var verrs engine.ValidationErrors
	return errors.As(err, &verrs)
}
