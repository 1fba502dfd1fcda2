package mailbox

// Clipboard is the capability used to copy the active address.
type Clipboard interface {
	WriteAll(text string) error
}
