package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nixlim/chat-top/internal/chart"
	"github.com/nixlim/chat-top/internal/config"
	"github.com/nixlim/chat-top/internal/events"
	"github.com/nixlim/chat-top/internal/fetch"
	"github.com/nixlim/chat-top/internal/projector"
	"github.com/nixlim/chat-top/internal/server"
	"github.com/nixlim/chat-top/internal/state"
	"github.com/nixlim/chat-top/internal/storage"
	"github.com/nixlim/chat-top/internal/tui"
)

func main() {
	configFlag := flag.String("config", "", "Path to the config file (default ~/.config/chat-top/config.toml)")
	chatFlag := flag.String("chat", "", "Chat id to load (overrides display.default_chat_id)")
	fromFlag := flag.String("from", "", "Statistics start date, YYYY-MM-DD (overrides display.default_from_date)")
	serveFlag := flag.Bool("serve", false, "Serve the JSON/PNG API instead of the dashboard")
	exportFlag := flag.String("export", "", "Write chart PNGs for the chat into this directory and exit")
	debugFlag := flag.String("debug", "", "Write a debug log to the specified file path")
	initFlag := flag.Bool("init", false, "Create or complete the config file and exit")
	flag.Parse()

	if *initFlag {
		RunInit(*configFlag)
		return
	}

	var (
		loadResult *config.LoadResult
		err        error
	)
	if *configFlag != "" {
		loadResult, err = config.LoadFrom(*configFlag)
	} else {
		loadResult, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat-top: config error: %v\n", err)
		os.Exit(1)
	}
	cfg := loadResult.Config

	for _, w := range loadResult.Warnings {
		fmt.Fprintf(os.Stderr, "chat-top: config warning: %s\n", w)
	}

	tuiMode := !*serveFlag && *exportFlag == ""
	closeLog, err := setupLogging(cfg.Log, *debugFlag, tuiMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat-top: %v\n", err)
		os.Exit(1)
	}

	cls, err := buildClassification(cfg.Classification)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat-top: %v\n", err)
		os.Exit(1)
	}
	proj := projector.New(cls, projector.WithFormatter(projector.NewFormatter(cfg.Display.Locale)))

	eventBuf := events.NewRingBuffer(cfg.Display.EventBufferSize)
	client := fetch.NewClient(cfg.API.BaseURL,
		fetch.WithAuthToken(cfg.API.AuthToken),
		fetch.WithTimeout(cfg.API.Timeout()),
		fetch.WithObserver(func(e fetch.Event) {
			eventBuf.Add(events.FormatFetchEvent(e))
		}),
	)

	store, isPersistent, err := storage.NewStore(cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chat-top: storage error: %v\n", err)
		os.Exit(1)
	}

	query := fetch.Query{
		ChatID:   cfg.Display.DefaultChatID,
		FromDate: cfg.Display.DefaultFromDate,
	}
	if *chatFlag != "" {
		query.ChatID = *chatFlag
	}
	if *fromFlag != "" {
		query.FromDate = *fromFlag
	}

	switch {
	case *exportFlag != "":
		err = runExport(client, proj, store, query, *exportFlag)
		closeLog()
	case *serveFlag:
		err = runServe(cfg, client, proj, store, eventBuf, query, closeLog)
	default:
		err = runTUI(cfg, client, proj, store, eventBuf, query, isPersistent, closeLog)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "chat-top: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging points the global zerolog logger at the debug file, at
// stderr for headless modes, or nowhere while the dashboard owns the
// terminal. The returned func disables logging before closing the debug
// file, so late writers are dropped.
func setupLogging(cfg config.LogConfig, debugPath string, tuiMode bool) (func(), error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	switch {
	case debugPath != "":
		f, err := os.OpenFile(debugPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open debug log %q: %w", debugPath, err)
		}
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = zerolog.New(f).With().Timestamp().Logger()
		return func() {
			zerolog.SetGlobalLevel(zerolog.Disabled)
			_ = f.Close()
		}, nil
	case tuiMode:
		log.Logger = zerolog.Nop()
	default:
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
	return func() {}, nil
}

// buildClassification applies the config overrides to the built-in table.
func buildClassification(cc config.ClassificationConfig) (projector.Classification, error) {
	cls := projector.DefaultClassification()

	overrides := []struct {
		bucket string
		keys   []string
	}{
		{"Общее", cc.Common},
		{"Фото", cc.Photo},
		{"Аудио", cc.Audio},
		{"Видео", cc.Video},
	}
	for _, o := range overrides {
		if o.keys != nil {
			cls = cls.WithBucketKeys(o.bucket, o.keys)
		}
	}
	if cc.PrimaryMetrics != nil {
		cls.PrimaryMetrics = append([]string(nil), cc.PrimaryMetrics...)
	}
	cls.MinContactDays = cc.MinContactDays

	if err := cls.Validate(); err != nil {
		return cls, err
	}
	return cls, nil
}

func runExport(client *fetch.Client, proj *projector.Projector, store state.Store, q fetch.Query, dir string) error {
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, err := client.Fetch(ctx, q)
	if err != nil {
		return err
	}
	if _, err := state.Remember(store, q.ChatID); err != nil {
		log.Warn().Err(err).Msg("failed to remember chat id")
	}

	p := proj.Project(rec)
	paths, err := chart.ExportAll(dir, p, chart.Options{})
	if err != nil {
		return err
	}
	if !p.ChartsEnabled {
		fmt.Fprintf(os.Stderr, "chat-top: charts need at least %v days of contact (have %v)\n",
			proj.Classification().MinContactDays, p.ContactDays)
	}
	for _, path := range paths {
		fmt.Println(path)
	}
	return nil
}

func runServe(cfg config.Config, client *fetch.Client, proj *projector.Projector, store state.Store,
	eventBuf *events.RingBuffer, q fetch.Query, closeLog func()) error {
	svc := server.NewService(cfg.Server.Addr(), client, proj, store,
		server.WithDefaults(q),
		server.WithEventLog(eventBuf),
	)

	shutdownMgr := tui.NewShutdownManager()
	shutdownMgr.StopServer = svc.Stop
	shutdownMgr.CloseStore = store.Close
	shutdownMgr.Cleanup = closeLog

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		_ = shutdownMgr.Shutdown()
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		return shutdownMgr.Shutdown()
	}
}

func runTUI(cfg config.Config, client *fetch.Client, proj *projector.Projector, store state.Store,
	eventBuf *events.RingBuffer, q fetch.Query, isPersistent bool, closeLog func()) error {
	shutdownMgr := tui.NewShutdownManager()
	shutdownMgr.CloseStore = store.Close
	shutdownMgr.Cleanup = closeLog

	model := tui.NewModel(cfg,
		tui.WithFetcher(client),
		tui.WithStore(store),
		tui.WithProjector(proj),
		tui.WithEventProvider(eventBuf),
		tui.WithInitialQuery(q),
		tui.WithStartView(tui.ViewSummary),
		tui.WithPersistenceFlag(isPersistent),
		tui.WithOnShutdown(func() {
			_ = shutdownMgr.Shutdown()
		}),
	)

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			_ = shutdownMgr.Shutdown()
			p.Quit()
		case <-ctx.Done():
			return
		}
	}()

	_, err := p.Run()
	_ = shutdownMgr.Shutdown()
	return err
}
