package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// Part describes a non-inline MIME part of a raw message.
type Part struct {
	Filename    string
	ContentType string
	Size        int64
}

// Source is the parsed form of a raw RFC 822 message.
type Source struct {
	Subject     string
	From        string
	To          string
	Date        time.Time
	MessageID   string
	Text        string
	HTML        string
	Attachments []Part
}

// ParseSource reads a raw message and extracts its headers, its first
// text and HTML bodies and the names and sizes of its attachments.
func ParseSource(r io.Reader) (*Source, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading message: %w", err)
	}
	defer mr.Close()

	src := &Source{}
	src.Subject, _ = mr.Header.Subject()
	src.Date, _ = mr.Header.Date()
	src.MessageID, _ = mr.Header.MessageID()
	src.From = addressList(mr.Header, "From")
	src.To = addressList(mr.Header, "To")

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return src, fmt.Errorf("reading part: %w", err)
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			switch {
			case strings.HasPrefix(ct, "text/html") && src.HTML == "":
				src.HTML = string(body)
			case (ct == "" || strings.HasPrefix(ct, "text/plain")) && src.Text == "":
				src.Text = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			ct, _, _ := h.ContentType()
			n, err := io.Copy(io.Discard, part.Body)
			if err != nil {
				continue
			}
			src.Attachments = append(src.Attachments, Part{
				Filename:    filename,
				ContentType: ct,
				Size:        n,
			})
		}
	}
	return src, nil
}

// addressList renders an address header, falling back to its raw value
// when it does not parse.
func addressList(h mail.Header, key string) string {
	addrs, err := h.AddressList(key)
	if err != nil || len(addrs) == 0 {
		return h.Get(key)
	}
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		if a.Name != "" {
			parts[i] = fmt.Sprintf("%s <%s>", a.Name, a.Address)
		} else {
			parts[i] = a.Address
		}
	}
	return strings.Join(parts, ", ")
}
