package app

import (
	"errors"
	"strings"
)

// ErrNoKeyboard is returned when text is typed while no field has focus.
var ErrNoKeyboard = errors.New("keyboard is not present")

// Key codes understood by TextField.Type.
const (
	KeyBackspace = "\b"
	KeyDelete    = "\u007f"
	KeyReturn    = "\n"
)

// TextField is the state of an editable text element.
type TextField struct {
	Text        string
	Placeholder string
	// OnChange is called after every edit.
	OnChange func(text string)
}

// Set replaces the text.
func (f *TextField) Set(text string) {
	f.Text = text
	if f.OnChange != nil {
		f.OnChange(text)
	}
}

// Type appends text, applying backspace and delete characters.
func (f *TextField) Type(text string) {
	var sb strings.Builder
	sb.WriteString(f.Text)
	for _, r := range text {
		switch string(r) {
		case KeyBackspace, KeyDelete:
			s := []rune(sb.String())
			if len(s) > 0 {
				sb.Reset()
				sb.WriteString(string(s[:len(s)-1]))
			}
		default:
			sb.WriteRune(r)
		}
	}
	f.Set(sb.String())
}

// Keyboard tracks the focused text field. The on-screen keyboard is shown
// while a field has focus.
type Keyboard struct {
	focused *TextField
}

// Focus gives f keyboard focus.
func (k *Keyboard) Focus(f *TextField) {
	k.focused = f
}

// Focused returns the focused field, or nil.
func (k *Keyboard) Focused() *TextField {
	return k.focused
}

// Visible reports whether the keyboard is shown.
func (k *Keyboard) Visible() bool {
	return k.focused != nil
}

// Dismiss hides the keyboard.
func (k *Keyboard) Dismiss() error {
	if k.focused == nil {
		return ErrNoKeyboard
	}
	k.focused = nil
	return nil
}

// Type sends text to the focused field. A return character ends editing.
func (k *Keyboard) Type(text string) error {
	if k.focused == nil {
		return ErrNoKeyboard
	}
	field := k.focused
	if i := strings.Index(text, KeyReturn); i >= 0 {
		field.Type(text[:i])
		k.focused = nil
		return nil
	}
	field.Type(text)
	return nil
}

// Release drops focus if f is focused. Screens call it when their fields go
// away.
func (k *Keyboard) Release(f *TextField) {
	if k.focused == f {
		k.focused = nil
	}
}
