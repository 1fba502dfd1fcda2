package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
)

type createCmd struct {
	domain   string
	password string
}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "create a new disposable address" }
func (*createCmd) Usage() string {
	return `create [-domain <domain>] [-password <pw>] [username]:
	create an address and make it the active one; a random username is
	used when none is given
`
}

func (c *createCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.domain, "domain", "", "address domain (default: first available)")
	f.StringVar(&c.password, "password", "", "account password (default: from config)")
}

func (c *createCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := setup(false)
	if err != nil {
		return fatal("Setup failed", err)
	}
	defer e.closeAll()

	username := strings.ToLower(strings.TrimSpace(f.Arg(0)))
	if username == "" {
		username = e.mb.GenerateUsername()
	}
	password := c.password
	if password == "" {
		password = e.cfg.Display.DefaultPassword
	}

	domain := c.domain
	if domain == "" {
		if err := e.mb.LoadDomains(ctx); err != nil {
			return e.failed(err)
		}
		domains := e.mb.Snapshot().Domains
		if len(domains) == 0 {
			return usage("the service offers no domains right now")
		}
		domain = domains[0]
	}

	if err := e.mb.CreateAccount(ctx, username, domain, password); err != nil {
		return e.failed(err)
	}
	acct := e.mb.Account()
	fmt.Println(acct.Address)
	fmt.Printf("password: %s\n", acct.Password)
	return subcommands.ExitSuccess
}

type loginCmd struct {
	password string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "log into an existing address" }
func (*loginCmd) Usage() string {
	return `login -password <pw> <address>:
	obtain a token for an existing address and make it the active one
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.password, "password", "", "account password")
}

func (c *loginCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	address := f.Arg(0)
	if address == "" || c.password == "" {
		return usage("address and -password required")
	}

	e, err := setup(false)
	if err != nil {
		return fatal("Setup failed", err)
	}
	defer e.closeAll()

	if err := e.mb.Login(ctx, address, c.password); err != nil {
		return e.failed(err)
	}
	fmt.Println(e.mb.Account().Address)
	return subcommands.ExitSuccess
}

type whoamiCmd struct {
	showPassword bool
}

func (*whoamiCmd) Name() string     { return "whoami" }
func (*whoamiCmd) Synopsis() string { return "print the active address" }
func (*whoamiCmd) Usage() string {
	return `whoami [-password]:
	print the active address, optionally with its password
`
}

func (c *whoamiCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.showPassword, "password", false, "also print the password")
}

func (c *whoamiCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := setup(false)
	if err != nil {
		return fatal("Setup failed", err)
	}
	defer e.closeAll()

	if err := e.restore(ctx); err != nil {
		return fatal("No session", err)
	}
	acct := e.mb.Account()
	fmt.Println(acct.Address)
	if c.showPassword {
		fmt.Printf("password: %s\n", acct.Password)
	}
	return subcommands.ExitSuccess
}

type copyCmd struct{}

func (*copyCmd) Name() string     { return "copy" }
func (*copyCmd) Synopsis() string { return "copy the active address to the clipboard" }
func (*copyCmd) Usage() string {
	return `copy:
	copy the active address to the system clipboard
`
}

func (*copyCmd) SetFlags(f *flag.FlagSet) {}

func (*copyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := setup(false)
	if err != nil {
		return fatal("Setup failed", err)
	}
	defer e.closeAll()

	if err := e.restore(ctx); err != nil {
		return fatal("No session", err)
	}
	if err := e.mb.CopyAddress(); err != nil {
		return e.failed(err)
	}
	fmt.Printf("copied %s\n", e.mb.Account().Address)
	return subcommands.ExitSuccess
}

type logoutCmd struct{}

func (*logoutCmd) Name() string     { return "logout" }
func (*logoutCmd) Synopsis() string { return "forget the active address" }
func (*logoutCmd) Usage() string {
	return `logout:
	forget the active address locally; the address keeps existing on the
	service until it expires
`
}

func (*logoutCmd) SetFlags(f *flag.FlagSet) {}

func (*logoutCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := setup(false)
	if err != nil {
		return fatal("Setup failed", err)
	}
	defer e.closeAll()

	if err := e.mb.Logout(ctx); err != nil {
		return e.failed(err)
	}
	return subcommands.ExitSuccess
}

type deleteAccountCmd struct {
	yes bool
}

func (*deleteAccountCmd) Name() string     { return "delete-account" }
func (*deleteAccountCmd) Synopsis() string { return "delete the active address from the service" }
func (*deleteAccountCmd) Usage() string {
	return `delete-account -yes:
	delete the active address and all of its messages on the service,
	then log out
`
}

func (c *deleteAccountCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "confirm deletion")
}

func (c *deleteAccountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		return usage("refusing to delete without -yes")
	}

	e, err := setup(false)
	if err != nil {
		return fatal("Setup failed", err)
	}
	defer e.closeAll()

	if err := e.restore(ctx); err != nil {
		return fatal("No session", err)
	}
	addr := e.mb.Account().Address
	if err := e.mb.DeleteAccount(ctx); err != nil {
		return e.failed(err)
	}
	fmt.Printf("deleted %s\n", addr)
	return subcommands.ExitSuccess
}

type domainsCmd struct{}

func (*domainsCmd) Name() string     { return "domains" }
func (*domainsCmd) Synopsis() string { return "list available address domains" }
func (*domainsCmd) Usage() string {
	return `domains:
	list the domains new addresses can be created under
`
}

func (*domainsCmd) SetFlags(f *flag.FlagSet) {}

func (*domainsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := setup(false)
	if err != nil {
		return fatal("Setup failed", err)
	}
	defer e.closeAll()

	if err := e.mb.LoadDomains(ctx); err != nil {
		return e.failed(err)
	}
	for _, d := range e.mb.Snapshot().Domains {
		fmt.Println(d)
	}
	return subcommands.ExitSuccess
}
