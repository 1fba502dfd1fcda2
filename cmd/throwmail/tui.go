package main

import (
	"context"
	"flag"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/subcommands"

	"github.com/nhle/throwmail/internal/app"
)

type tuiCmd struct{}

func (*tuiCmd) Name() string     { return "tui" }
func (*tuiCmd) Synopsis() string { return "start the interactive inbox (default)" }
func (*tuiCmd) Usage() string {
	return `tui:
	open the full-screen inbox; creates an address on first run
`
}

func (*tuiCmd) SetFlags(f *flag.FlagSet) {}

func (*tuiCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := setup(true)
	if err != nil {
		return fatal("Setup failed", err)
	}
	defer e.closeAll()

	p := tea.NewProgram(app.New(ctx, e.mb, e.cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fatal("UI failed", err)
	}
	return subcommands.ExitSuccess
}
