package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
)

// AccountInfo is the account descriptor returned by POST /accounts and
// GET /me.
type AccountInfo struct {
	ID         string `json:"id"`
	Address    string `json:"address"`
	Quota      int64  `json:"quota"`
	Used       int64  `json:"used"`
	IsDisabled bool   `json:"isDisabled"`
	IsDeleted  bool   `json:"isDeleted"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// TokenInfo is the response from POST /token.
type TokenInfo struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// Source is the raw RFC 822 source of a message.
type Source struct {
	ID          string `json:"id"`
	DownloadURL string `json:"downloadUrl"`
	Data        string `json:"data"`
}

// credentials is the request body for POST /accounts and POST /token.
type credentials struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

// seenPatch is the merge-patch body for PATCH /messages/{id}.
type seenPatch struct {
	Seen bool `json:"seen"`
}

// collection is a hydra (JSON-LD) list document. Members is a pointer so
// a document without the key can be told apart from an empty list.
type collection[T any] struct {
	Members    *[]T `json:"hydra:member"`
	TotalItems int  `json:"hydra:totalItems"`
}

var errNoMembers = errors.New("collection has no hydra:member list")

// errorBody covers the error shapes the service returns: hydra errors for
// validation failures and {code,message} for auth failures.
type errorBody struct {
	HydraDescription string `json:"hydra:description"`
	Detail           string `json:"detail"`
	Message          string `json:"message"`
}

func (b errorBody) description() string {
	switch {
	case b.HydraDescription != "":
		return b.HydraDescription
	case b.Detail != "":
		return b.Detail
	default:
		return b.Message
	}
}

// decodeCollection accepts either a hydra collection or a bare JSON array.
func decodeCollection[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var c collection[T]
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, err
	}
	if c.Members == nil {
		return nil, errNoMembers
	}
	return *c.Members, nil
}
