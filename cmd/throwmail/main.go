// Package main implements throwmail, a terminal client for disposable
// mail.tm addresses. Without a subcommand it starts the interactive UI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"

	"github.com/nhle/throwmail/internal/clipboard"
	"github.com/nhle/throwmail/internal/gateway"
	"github.com/nhle/throwmail/internal/logging"
	"github.com/nhle/throwmail/internal/mailbox"
	"github.com/nhle/throwmail/internal/model"
	"github.com/nhle/throwmail/internal/session"
)

var (
	configPath = flag.String("config", model.DefaultConfigPath(), "path to the YAML configuration file")
	baseURL    = flag.String("api", "", "mail service base URL (overrides config)")
	logLevel   = flag.String("log-level", "", "debug, info, warn or error (overrides config)")
)

func main() {
	// Important top-level flags
	subcommands.ImportantFlag("config")

	// Setup standard helpers
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	// Interactive
	subcommands.Register(&tuiCmd{}, "")

	// Account
	subcommands.Register(&createCmd{}, "account")
	subcommands.Register(&loginCmd{}, "account")
	subcommands.Register(&whoamiCmd{}, "account")
	subcommands.Register(&copyCmd{}, "account")
	subcommands.Register(&logoutCmd{}, "account")
	subcommands.Register(&deleteAccountCmd{}, "account")
	subcommands.Register(&domainsCmd{}, "account")

	// Messages
	subcommands.Register(&inboxCmd{}, "messages")
	subcommands.Register(&readCmd{}, "messages")
	subcommands.Register(&rmCmd{}, "messages")
	subcommands.Register(&sourceCmd{}, "messages")

	// Setup
	subcommands.Register(&initCmd{}, "")

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var status subcommands.ExitStatus
	if flag.NArg() == 0 {
		status = (&tuiCmd{}).Execute(ctx, flag.NewFlagSet("tui", flag.ContinueOnError))
	} else {
		status = subcommands.Execute(ctx)
	}
	stop()
	os.Exit(int(status))
}

// env is everything a subcommand needs to talk to the service.
type env struct {
	cfg      *model.AppConfig
	mb       *mailbox.Mailbox
	closeAll func()
}

// setup loads the configuration, opens the log and the session store and
// builds a mailbox around them. Interactive use keeps the poller; one-shot
// commands refresh explicitly.
func setup(interactive bool) (*env, error) {
	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return nil, err
	}
	if *baseURL != "" {
		cfg.Gateway.BaseURL = *baseURL
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	closeLog, err := logging.Open(cfg.Log.Level, cfg.Log.File, cfg.Log.JSON)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}

	store, closeStore, err := session.Open(cfg.Session)
	if err != nil {
		closeLog()
		return nil, err
	}

	client := gateway.NewClient(cfg.Gateway.BaseURL,
		gateway.WithTimeout(time.Duration(cfg.Gateway.TimeoutSec)*time.Second),
		gateway.WithLogger(log.With().Str("component", "gateway").Logger()),
	)

	opts := []mailbox.Option{
		mailbox.WithPollInterval(time.Duration(cfg.Session.PollIntervalSec) * time.Second),
		mailbox.WithClipboard(clipboard.System{}),
		mailbox.WithLogger(log.With().Str("component", "mailbox").Logger()),
	}
	if !interactive {
		opts = append(opts, mailbox.WithoutPolling())
	}
	mb := mailbox.New(client, store, opts...)

	log.Debug().Str("api", cfg.Gateway.BaseURL).Str("store", cfg.Session.Store).Msg("Starting")

	return &env{
		cfg: cfg,
		mb:  mb,
		closeAll: func() {
			mb.Close()
			if err := closeStore(); err != nil {
				log.Warn().Err(err).Msg("Closing session store")
			}
			closeLog()
		},
	}, nil
}

// restore loads the saved account and fails when there is none.
func (e *env) restore(ctx context.Context) error {
	if err := e.mb.Restore(ctx); err != nil {
		return err
	}
	if e.mb.Account() == nil {
		return errors.New("no active address; run `throwmail create` first")
	}
	return nil
}

// fatal reports err prefixed with msg. Use failed for mailbox operations.
func fatal(msg string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	return subcommands.ExitFailure
}

// failed reports a mailbox operation failure using the error slot.
func (e *env) failed(err error) subcommands.ExitStatus {
	if text := e.mb.Snapshot().Error; text != "" {
		log.Debug().Err(err).Msg("Command failed")
		fmt.Fprintln(os.Stderr, text)
		return subcommands.ExitFailure
	}
	return fatal("Error", err)
}

func usage(msg string) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, msg)
	return subcommands.ExitUsageError
}
