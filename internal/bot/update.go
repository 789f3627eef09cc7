// Package bot drives the ordering conversation: it turns inbound chat events
// into session changes and the screens the transport renders.
package bot

// Kind is the type of an inbound event
type Kind int

const (
	KindCommand Kind = iota
	KindText
	KindCallback
)

// Update is one inbound chat event
type Update struct {
	Kind     Kind
	UserID   int64
	ChatID   int64
	FullName string

	// Payload is the command name without the slash, the message text or
	// the callback token.
	Payload string

	// Args holds the text after a command.
	Args string

	// Current is the screen the callback was pressed on, when known.
	Current *Screen
}

// Button is an inline keyboard button. Data is at most MaxTokenLen bytes.
type Button struct {
	Label string
	Data  string
}

// Screen is a message with its inline keyboard
type Screen struct {
	Text     string
	Keyboard [][]Button
}

// Equal reports whether two screens render identically
func (s *Screen) Equal(o *Screen) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Text != o.Text || len(s.Keyboard) != len(o.Keyboard) {
		return false
	}
	for i := range s.Keyboard {
		if len(s.Keyboard[i]) != len(o.Keyboard[i]) {
			return false
		}
		for j := range s.Keyboard[i] {
			if s.Keyboard[i][j] != o.Keyboard[i][j] {
				return false
			}
		}
	}
	return true
}

// Response tells the transport what to render
type Response struct {
	// Answer is the callback acknowledgement text; shown as a popup when
	// Alert is set.
	Answer string
	Alert  bool

	// Screen, when set, replaces the pressed message if Edit is set, or is
	// sent as a new message otherwise.
	Screen *Screen
	Edit   bool
}
