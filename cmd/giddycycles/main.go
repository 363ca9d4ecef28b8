package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/lachiem1/giddycycles/internal/auth"
	"github.com/lachiem1/giddycycles/internal/config"
	"github.com/lachiem1/giddycycles/internal/remote"
	"github.com/lachiem1/giddycycles/internal/storage"
	"github.com/lachiem1/giddycycles/internal/syncer"
	"github.com/lachiem1/giddycycles/internal/tui"
)

const usage = `usage:
  giddycycles                          open the terminal UI
  giddycycles auth set|remove          store or remove the API key
  giddycycles sync                     pull obligations and ledgers
  giddycycles cycles <id> [-as-of YYYY-MM-DD] [-max N]
  giddycycles override set <id> <cycle> [-amount X] [-minimum X] [-date YYYY-MM-DD] [-notes TEXT]
  giddycycles override delete <id> <cycle>
  giddycycles remind [-once]           send due reminders on the configured schedule
  giddycycles db reset                 delete the local database`

func main() {
	args := os.Args[1:]

	if len(args) >= 1 && args[0] == "auth" {
		if err := runAuth(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "auth error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if len(args) >= 1 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Println(usage)
		return
	}

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	interactive := len(args) == 0
	log, closeLog, err := newLogger(cfg, interactive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log setup error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if len(args) >= 2 && args[0] == "db" && args[1] == "reset" {
		if err := resetDB(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "db reset error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Local database removed.")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, storageConfig(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage setup error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if interactive {
		if err := runTUI(db, cfg, log); err != nil {
			fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	name := args[0]
	var runErr error
	switch name {
	case "sync":
		runErr = runSync(ctx, db, cfg, log)
	case "cycles":
		runErr = runCycles(ctx, db, cfg, args[1:])
	case "override":
		runErr = runOverride(ctx, db, cfg, args[1:])
	case "remind":
		runErr = runRemind(ctx, db, cfg, log, args[1:])
	default:
		runErr = fmt.Errorf("unknown command %q\n%s", name, usage)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "%s error: %v\n", name, runErr)
		os.Exit(1)
	}
}

// resetDB removes the local database files. In secure mode the key goes too,
// and a fresh one is generated on the next open.
func resetDB(cfg *config.Config) error {
	if err := storage.Wipe(storageConfig(cfg)); err != nil {
		return err
	}
	if cfg.DBMode != config.DBModeSecure {
		return nil
	}
	if err := auth.RemoveDBKey(); err != nil {
		return fmt.Errorf("remove db key: %w", err)
	}
	return nil
}

func storageConfig(cfg *config.Config) storage.Config {
	return storage.Config{Mode: storage.Mode(cfg.DBMode), Path: cfg.DBPath}
}

// newLogger writes JSON to stderr for commands. The terminal UI owns the
// screen, so it only logs when a log file is configured.
func newLogger(cfg *config.Config, interactive bool) (*logrus.Logger, func(), error) {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("invalid log level, using INFO")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFile == "" {
		if interactive {
			log.SetOutput(io.Discard)
		}
		return log, func() {}, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	log.SetOutput(f)
	return log, func() { _ = f.Close() }, nil
}

func newRemoteClient(cfg *config.Config, log *logrus.Logger) (*remote.Client, error) {
	key, err := auth.LoadAPIKey()
	if err != nil {
		return nil, err
	}
	return remote.NewWithBaseURL(key, cfg.APIBaseURL).WithLogger(log), nil
}

func newService(db *sql.DB, cfg *config.Config, client *remote.Client, log *logrus.Logger, onEvent func(syncer.Event)) (*syncer.Service, error) {
	return syncer.NewObligationsService(db, client, syncer.Options{
		StaleTTL:     cfg.SyncStaleTTL,
		PollInterval: cfg.SyncPollInterval,
		Workers:      cfg.SyncWorkers,
		Log:          log,
		OnEvent:      onEvent,
	})
}

func runTUI(db *sql.DB, cfg *config.Config, log *logrus.Logger) error {
	opts := tui.Options{
		APIBaseURL: cfg.APIBaseURL,
		MaxCycles:  cfg.MaxCycles,
	}

	// Without a key the UI still browses cached data; sync starts next launch
	// after /connect.
	client, err := newRemoteClient(cfg, log)
	if err != nil {
		log.WithError(err).Info("no api key, background sync disabled")
	} else {
		events := make(chan syncer.Event, 32)
		service, err := newService(db, cfg, client, log, func(evt syncer.Event) {
			select {
			case events <- evt:
			default:
				log.WithField("collection", evt.Collection).Debug("dropping sync event, ui is busy")
			}
		})
		if err != nil {
			return err
		}
		defer service.LeaveView()
		opts.Service = service
		opts.Events = events
	}

	p := tea.NewProgram(tui.New(db, opts), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runAuth(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: giddycycles auth set|remove")
	}
	switch args[0] {
	case "set":
		fmt.Print("Enter API key: ")
		key, err := readSecret()
		if err != nil {
			return err
		}
		fmt.Println()

		if strings.TrimSpace(key) == "" {
			return errors.New("empty API key")
		}
		if err := auth.SaveAPIKey(key); err != nil {
			return err
		}
		fmt.Println("API key saved to your system credential store.")
		return nil
	case "remove":
		if err := auth.RemoveAPIKey(); err != nil {
			return err
		}
		fmt.Println("API key removed.")
		return nil
	default:
		return fmt.Errorf("unknown auth command %q", args[0])
	}
}

func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		value, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return string(value), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		if len(line) == 0 {
			return "", err
		}
	}
	return strings.TrimSpace(line), nil
}

func runSync(ctx context.Context, db *sql.DB, cfg *config.Config, log *logrus.Logger) error {
	client, err := newRemoteClient(cfg, log)
	if err != nil {
		return err
	}
	service, err := newService(db, cfg, client, log, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()
	if err := service.SyncAll(ctx); err != nil {
		return err
	}
	fmt.Printf("Synced obligations and ledgers in %s.\n", time.Since(start).Round(time.Millisecond))
	return nil
}
