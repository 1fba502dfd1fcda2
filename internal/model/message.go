package model

import (
	"strings"
	"time"
)

// Address is a named mailbox as it appears in message headers.
type Address struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// String renders the address as "Name <address>", or the bare address
// when no display name is present.
func (a Address) String() string {
	if a.Name == "" {
		return a.Address
	}
	return a.Name + " <" + a.Address + ">"
}

// Message is a message summary as returned by the inbox listing.
type Message struct {
	ID             string    `json:"id"`
	From           Address   `json:"from"`
	To             []Address `json:"to"`
	Subject        string    `json:"subject"`
	Intro          string    `json:"intro"`
	Seen           bool      `json:"seen"`
	IsDeleted      bool      `json:"isDeleted"`
	HasAttachments bool      `json:"hasAttachments"`
	Size           int64     `json:"size"`
	DownloadURL    string    `json:"downloadUrl"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Attachment describes a file attached to a message.
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Disposition string `json:"disposition"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadUrl"`
}

// MessageDetails is the full content of a single message.
type MessageDetails struct {
	Message

	CC          []Address    `json:"cc"`
	BCC         []Address    `json:"bcc"`
	Text        string       `json:"text"`
	HTML        []string     `json:"html"`
	Attachments []Attachment `json:"attachments"`
}

// HTMLBody joins the HTML parts of the message into a single document.
func (d MessageDetails) HTMLBody() string {
	return strings.Join(d.HTML, "\n")
}

// Recipients renders the To list as a comma separated string.
func (m Message) Recipients() string {
	parts := make([]string, 0, len(m.To))
	for _, a := range m.To {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}
