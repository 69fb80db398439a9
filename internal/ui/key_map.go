package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the progress view.
type keyMap struct {
	stop key.Binding
	help key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		stop: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "stop (twice to abort)")),
		help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.stop, k.help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.stop}, {k.help}}
}
