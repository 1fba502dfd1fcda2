package model

// Account is a mailbox identity issued by the mail service. It is the
// record persisted by the session store.
type Account struct {
	// ID is the account identifier assigned by the service.
	ID string `json:"id"`

	// Address is the full mailbox address (username@domain).
	Address string `json:"address"`

	// Password is the credential the account was created with.
	Password string `json:"password"`

	// Token is the bearer token used for every authenticated call.
	Token string `json:"token"`
}

// Domain is an address suffix offered by the mail service.
type Domain struct {
	ID        string `json:"id"`
	Domain    string `json:"domain"`
	IsActive  bool   `json:"isActive"`
	IsPrivate bool   `json:"isPrivate"`
	CreatedAt string `json:"createdAt"`
}

// Usable reports whether new addresses can be created on the domain.
func (d Domain) Usable() bool {
	return d.IsActive && !d.IsPrivate && d.Domain != ""
}
