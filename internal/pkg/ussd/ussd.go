// Package ussd holds the text conventions of the USSD gateway: separator-joined
// input history in, CON/END prefixed replies out.
package ussd

import "strings"

// DefaultSeparator joins the answers the gateway echoes back each turn
const DefaultSeparator = "*"

// Split breaks the accumulated input into trimmed tokens.
// Empty input yields no tokens.
func Split(text, sep string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if sep == "" {
		sep = DefaultSeparator
	}
	parts := strings.Split(text, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Last returns the newest answer in the history
func Last(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// Reply is one gateway response
type Reply struct {
	Continue bool
	Message  string
}

// Con keeps the dialog open
func Con(msg string) Reply {
	return Reply{Continue: true, Message: msg}
}

// End closes the dialog
func End(msg string) Reply {
	return Reply{Message: msg}
}

// String renders the wire form
func (r Reply) String() string {
	if r.Continue {
		return "CON " + r.Message
	}
	return "END " + r.Message
}
