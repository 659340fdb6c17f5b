package repl

import "github.com/charmbracelet/bubbles/key"

// keyMap binds the keys the REPL handles itself. Other keys edit the input.
type keyMap struct {
	Interrupt  key.Binding
	EOF        key.Binding
	Submit     key.Binding
	NextMatch  key.Binding
	PrevMatch  key.Binding
	Accept     key.Binding
	ToggleMode key.Binding
	Older      key.Binding
	Newer      key.Binding
	OlderMode  key.Binding
	NewerMode  key.Binding
	OlderCtrl  key.Binding
	NewerCtrl  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Interrupt:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "clear input or exit")),
		EOF:        key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "exit")),
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		NextMatch:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next candidate")),
		PrevMatch:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous candidate")),
		Accept:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "accept candidate")),
		ToggleMode: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "toggle mode")),
		Older:      key.NewBinding(key.WithKeys("up")),
		Newer:      key.NewBinding(key.WithKeys("down")),
		OlderMode:  key.NewBinding(key.WithKeys("shift+up")),
		NewerMode:  key.NewBinding(key.WithKeys("shift+down")),
		OlderCtrl:  key.NewBinding(key.WithKeys("alt+up")),
		NewerCtrl:  key.NewBinding(key.WithKeys("alt+down")),
	}
}
