package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"github.com/nhle/throwmail/internal/model"
	"github.com/nhle/throwmail/internal/render"
)

type inboxCmd struct {
	unread bool
}

func (*inboxCmd) Name() string     { return "inbox" }
func (*inboxCmd) Synopsis() string { return "list messages of the active address" }
func (*inboxCmd) Usage() string {
	return `inbox [-unread]:
	list the newest messages of the active address
`
}

func (c *inboxCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.unread, "unread", false, "only list unread messages")
}

func (c *inboxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := setup(false)
	if err != nil {
		return fatal("Setup failed", err)
	}
	defer e.closeAll()

	if err := e.restore(ctx); err != nil {
		return fatal("No session", err)
	}
	if err := e.mb.Refresh(ctx); err != nil {
		return e.failed(err)
	}

	writeInbox(os.Stdout, e.mb.Snapshot().Messages, c.unread, time.Now())
	return subcommands.ExitSuccess
}

// writeInbox prints one row per message, or a placeholder line when
// nothing matches.
func writeInbox(out io.Writer, msgs []model.Message, unread bool, now time.Time) {
	if len(msgs) == 0 {
		fmt.Fprintln(out, "No messages yet")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	rows := 0
	for _, m := range msgs {
		if unread && m.Seen {
			continue
		}
		mark := " "
		if !m.Seen {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.ID, mark, m.From.String(), m.Subject, render.Since(m.CreatedAt, now))
		rows++
	}
	_ = w.Flush()
	if rows == 0 {
		fmt.Fprintln(out, "No unread messages")
	}
}

type readCmd struct{}

func (*readCmd) Name() string     { return "read" }
func (*readCmd) Synopsis() string { return "print a message and mark it read" }
func (*readCmd) Usage() string {
	return `read <id>:
	print the headers and body of a message and mark it read
`
}

func (*readCmd) SetFlags(f *flag.FlagSet) {}

func (*readCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id := f.Arg(0)
	if id == "" {
		return usage("message id required")
	}

	e, err := setup(false)
	if err != nil {
		return fatal("Setup failed", err)
	}
	defer e.closeAll()

	if err := e.restore(ctx); err != nil {
		return fatal("No session", err)
	}
	if err := e.mb.Refresh(ctx); err != nil {
		return e.failed(err)
	}
	if err := e.mb.Select(ctx, id); err != nil {
		return e.failed(err)
	}

	d := e.mb.Snapshot().Selected
	fmt.Printf("From:    %s\n", d.From.String())
	fmt.Printf("To:      %s\n", d.Recipients())
	fmt.Printf("Date:    %s\n", render.Stamp(d.CreatedAt))
	fmt.Printf("Subject: %s\n", d.Subject)
	if len(d.Attachments) > 0 {
		names := make([]string, 0, len(d.Attachments))
		for _, a := range d.Attachments {
			names = append(names, fmt.Sprintf("%s (%s)", a.Filename, render.Size(a.Size)))
		}
		fmt.Printf("Files:   %s\n", strings.Join(names, ", "))
	}
	fmt.Println()
	fmt.Println(render.Body(d))
	return subcommands.ExitSuccess
}

type rmCmd struct{}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete a message" }
func (*rmCmd) Usage() string {
	return `rm <id>...:
	delete one or more messages of the active address
`
}

func (*rmCmd) SetFlags(f *flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		return usage("at least one message id required")
	}

	e, err := setup(false)
	if err != nil {
		return fatal("Setup failed", err)
	}
	defer e.closeAll()

	if err := e.restore(ctx); err != nil {
		return fatal("No session", err)
	}
	for _, id := range f.Args() {
		if err := e.mb.Remove(ctx, id); err != nil {
			return e.failed(err)
		}
	}
	return subcommands.ExitSuccess
}

type sourceCmd struct {
	parse bool
}

func (*sourceCmd) Name() string     { return "source" }
func (*sourceCmd) Synopsis() string { return "download the raw source of a message" }
func (*sourceCmd) Usage() string {
	return `source [-parse] <id>:
	print the RFC 822 source of a message, or a summary of its MIME parts
`
}

func (c *sourceCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.parse, "parse", false, "summarize the MIME structure instead of printing raw source")
}

func (c *sourceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id := f.Arg(0)
	if id == "" {
		return usage("message id required")
	}

	e, err := setup(false)
	if err != nil {
		return fatal("Setup failed", err)
	}
	defer e.closeAll()

	if err := e.restore(ctx); err != nil {
		return fatal("No session", err)
	}
	raw, err := e.mb.Source(ctx, id)
	if err != nil {
		return e.failed(err)
	}
	if !c.parse {
		fmt.Print(raw)
		return subcommands.ExitSuccess
	}

	src, err := render.ParseSource(strings.NewReader(raw))
	if err != nil {
		return fatal("Parse failed", err)
	}
	fmt.Printf("Message-ID: %s\n", src.MessageID)
	fmt.Printf("From:       %s\n", src.From)
	fmt.Printf("To:         %s\n", src.To)
	fmt.Printf("Subject:    %s\n", src.Subject)
	if !src.Date.IsZero() {
		fmt.Printf("Date:       %s\n", render.Stamp(src.Date))
	}
	fmt.Printf("Text:       %s\n", render.Size(int64(len(src.Text))))
	fmt.Printf("HTML:       %s\n", render.Size(int64(len(src.HTML))))
	for _, p := range src.Attachments {
		fmt.Printf("Attachment: %s %s %s\n", p.Filename, p.ContentType, render.Size(p.Size))
	}
	return subcommands.ExitSuccess
}
