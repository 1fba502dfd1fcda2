package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/subcommands"

	"github.com/nhle/throwmail/internal/model"
)

type initCmd struct {
	force bool
	store string
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "write a default configuration file" }
func (*initCmd) Usage() string {
	return `init [-force] [-store keyring|sqlite]:
	write the default configuration to the -config path
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "overwrite an existing file")
	f.StringVar(&c.store, "store", model.StoreKeyring, "session store backend")
}

func (c *initCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.store != model.StoreKeyring && c.store != model.StoreSQLite {
		return usage(fmt.Sprintf("unknown store %q", c.store))
	}
	if !c.force {
		if _, err := os.Stat(*configPath); err == nil {
			return usage(fmt.Sprintf("%s exists; use -force to overwrite", *configPath))
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fatal("Checking config", err)
		}
	}

	cfg := model.DefaultAppConfig()
	cfg.Session.Store = c.store
	if *baseURL != "" {
		cfg.Gateway.BaseURL = *baseURL
	}
	if err := model.SaveConfig(*configPath, cfg); err != nil {
		return fatal("Writing config", err)
	}
	fmt.Println(*configPath)
	return subcommands.ExitSuccess
}
