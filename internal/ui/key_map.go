package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter    key.Binding
	back     key.Binding
	toggle   key.Binding
	next     key.Binding
	previous key.Binding
	forward  key.Binding
	rewind   key.Binding
	playing  key.Binding
	quit     key.Binding

	create     key.Binding
	delete     key.Binding
	add        key.Binding
	remove     key.Binding
	importPath key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		toggle:   key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		previous: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "previous")),
		forward:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "+5s")),
		rewind:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "-5s")),
		playing:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "now playing")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		create:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "new playlist")),
		delete:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add to playlist")),
		remove:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove")),
		importPath: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.back, k.playing},
		{k.toggle, k.next, k.previous},
		{k.forward, k.rewind, k.quit},
		{k.create, k.delete, k.importPath},
		{k.add, k.remove},
	}
}
