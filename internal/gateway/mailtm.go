package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nhle/throwmail/internal/model"
)

// Gateway is the set of mail service operations the mailbox consumes.
// Every authenticated call takes the bearer token explicitly; the gateway
// holds no session state.
type Gateway interface {
	// Domains lists the address suffixes offered by the service.
	Domains(ctx context.Context) ([]model.Domain, error)

	// CreateAccount registers a new mailbox.
	CreateAccount(ctx context.Context, address, password string) (*AccountInfo, error)

	// Token issues a bearer token for an existing mailbox.
	Token(ctx context.Context, address, password string) (*TokenInfo, error)

	// Me returns the account the token belongs to.
	Me(ctx context.Context, token string) (*AccountInfo, error)

	// Messages lists one page (1-based) of message summaries.
	Messages(ctx context.Context, token string, page int) ([]model.Message, error)

	// Message fetches the full content of a message.
	Message(ctx context.Context, token, id string) (*model.MessageDetails, error)

	// MarkSeen flags a message as read.
	MarkSeen(ctx context.Context, token, id string) error

	// DeleteMessage removes a message from the mailbox.
	DeleteMessage(ctx context.Context, token, id string) error

	// DeleteAccount removes the mailbox and all of its messages.
	DeleteAccount(ctx context.Context, token, id string) error

	// Source downloads the raw RFC 822 source of a message.
	Source(ctx context.Context, token, id string) (*Source, error)
}

// Domains implements Gateway.
func (c *Client) Domains(ctx context.Context) ([]model.Domain, error) {
	return getCollection[model.Domain](ctx, c, request{
		method: http.MethodGet,
		path:   "/domains",
	})
}

// CreateAccount implements Gateway.
func (c *Client) CreateAccount(
	ctx context.Context,
	address, password string,
) (*AccountInfo, error) {
	var info AccountInfo
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/accounts",
		body:   credentials{Address: address, Password: password},
	}, &info)
	if err != nil {
		return nil, err
	}
	if info.ID == "" {
		return nil, &MalformedError{
			Method: http.MethodPost,
			Path:   "/accounts",
			Err:    fmt.Errorf("response has no account id"),
		}
	}
	return &info, nil
}

// Token implements Gateway.
func (c *Client) Token(
	ctx context.Context,
	address, password string,
) (*TokenInfo, error) {
	var info TokenInfo
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/token",
		body:   credentials{Address: address, Password: password},
	}, &info)
	if err != nil {
		return nil, err
	}
	if info.Token == "" {
		return nil, &MalformedError{
			Method: http.MethodPost,
			Path:   "/token",
			Err:    fmt.Errorf("response has no token"),
		}
	}
	return &info, nil
}

// Me implements Gateway.
func (c *Client) Me(ctx context.Context, token string) (*AccountInfo, error) {
	var info AccountInfo
	err := c.doJSON(ctx, request{
		method: http.MethodGet,
		path:   "/me",
		token:  token,
	}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Messages implements Gateway.
func (c *Client) Messages(
	ctx context.Context,
	token string,
	page int,
) ([]model.Message, error) {
	if page < 1 {
		page = 1
	}
	msgs, err := getCollection[model.Message](ctx, c, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/messages?page=%d", page),
		token:  token,
	})
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

// Message implements Gateway.
func (c *Client) Message(
	ctx context.Context,
	token, id string,
) (*model.MessageDetails, error) {
	var details model.MessageDetails
	err := c.doJSON(ctx, request{
		method: http.MethodGet,
		path:   "/messages/" + url.PathEscape(id),
		token:  token,
	}, &details)
	if err != nil {
		return nil, err
	}
	if details.ID != id {
		return nil, &MalformedError{
			Method: http.MethodGet,
			Path:   "/messages/" + url.PathEscape(id),
			Err:    fmt.Errorf("response is for message %q", details.ID),
		}
	}
	return &details, nil
}

// MarkSeen implements Gateway.
func (c *Client) MarkSeen(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, request{
		method:      http.MethodPatch,
		path:        "/messages/" + url.PathEscape(id),
		token:       token,
		body:        seenPatch{Seen: true},
		contentType: "application/merge-patch+json",
	}, nil)
}

// DeleteMessage implements Gateway.
func (c *Client) DeleteMessage(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, request{
		method: http.MethodDelete,
		path:   "/messages/" + url.PathEscape(id),
		token:  token,
	}, nil)
}

// DeleteAccount implements Gateway.
func (c *Client) DeleteAccount(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, request{
		method: http.MethodDelete,
		path:   "/accounts/" + url.PathEscape(id),
		token:  token,
	}, nil)
}

// Source implements Gateway.
func (c *Client) Source(ctx context.Context, token, id string) (*Source, error) {
	var src Source
	err := c.doJSON(ctx, request{
		method: http.MethodGet,
		path:   "/sources/" + url.PathEscape(id),
		token:  token,
	}, &src)
	if err != nil {
		return nil, err
	}
	return &src, nil
}

// getCollection fetches a list endpoint and decodes its members.
func getCollection[T any](ctx context.Context, c *Client, r request) ([]T, error) {
	data, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	items, err := decodeCollection[T](data)
	if err != nil {
		return nil, &MalformedError{Method: r.method, Path: r.path, Err: err}
	}
	return items, nil
}
