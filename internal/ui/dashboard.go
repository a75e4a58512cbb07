package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// StoryBackend is the set of story operations the dashboard drives.
// *app.StoryApp implements it.
type StoryBackend interface {
	Titles() ([]string, error)
	Get(title string) (string, error)
	Edit(title, content string) error
	Rename(oldTitle, newTitle string) error
	Remove(title string) (bool, error)
	RemoveAll() (int, error)
}

type dashboardMode int

const (
	modeList dashboardMode = iota
	modeView
	modeEdit
	modeRename
	modeConfirm
)

type storyItem string

func (i storyItem) Title() string       { return string(i) }
func (i storyItem) Description() string { return "" }
func (i storyItem) FilterValue() string { return string(i) }

// storiesChangedMsg is sent when a markdown file in the stories directory changes.
type storiesChangedMsg struct{}

type watchErrMsg struct{ err error }

// Dashboard is the bubbletea model behind `agiledev dashboard`.
type Dashboard struct {
	backend StoryBackend
	watcher *fsnotify.Watcher

	mode    dashboardMode
	list    list.Model
	viewer  viewport.Model
	editor  textarea.Model
	input   textinput.Model
	current string

	confirmPrompt string
	confirmAction func() (string, error)

	status string
	err    error
}

// NewDashboard builds the dashboard model and loads the initial titles.
// watcher may be nil, in which case the list only refreshes after its own edits.
func NewDashboard(backend StoryBackend, watcher *fsnotify.Watcher) (Dashboard, error) {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = Heading("user stories")
	l.Styles.Title = StyleHeader
	l.DisableQuitKeybindings()

	editor := textarea.New()
	editor.ShowLineNumbers = false
	editor.CharLimit = 0
	editor.MaxHeight = 0

	input := textinput.New()
	input.Prompt = "New title: "

	m := Dashboard{
		backend: backend,
		watcher: watcher,
		list:    l,
		viewer:  viewport.New(0, 0),
		editor:  editor,
		input:   input,
	}
	m.reload()
	if m.err != nil {
		return Dashboard{}, m.err
	}
	return m, nil
}

// RunDashboard runs the dashboard until the user quits. The stories directory
// is watched so that changes made by other commands show up immediately.
func RunDashboard(backend StoryBackend, storiesDir string) error {
	var watcher *fsnotify.Watcher
	if storiesDir != "" {
		if err := os.MkdirAll(storiesDir, 0o755); err != nil {
			return fmt.Errorf("create stories dir: %w", err)
		}
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer func() { _ = w.Close() }()
		if err := w.Add(storiesDir); err != nil {
			return fmt.Errorf("watch %s: %w", storiesDir, err)
		}
		watcher = w
	}

	m, err := NewDashboard(backend, watcher)
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}

func waitForChange(w *fsnotify.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if filepath.Ext(ev.Name) != ".md" {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					return storiesChangedMsg{}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err: err}
			}
		}
	}
}

func (m Dashboard) Init() tea.Cmd {
	return waitForChange(m.watcher)
}

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case storiesChangedMsg:
		return m, tea.Batch(m.reload(), waitForChange(m.watcher))
	case watchErrMsg:
		m.err = msg.err
		return m, waitForChange(m.watcher)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeView:
			return m.updateView(msg)
		case modeEdit:
			return m.updateEdit(msg)
		case modeRename:
			return m.updateRename(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m.forward(msg)
}

func (m Dashboard) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		return m.forward(msg)
	}

	title, selected := m.selected()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "enter", "v":
		if selected {
			m.openView(title)
		}
		return m, nil
	case "e":
		if selected {
			return m, m.openEdit(title)
		}
		return m, nil
	case "r":
		if selected {
			return m, m.openRename(title)
		}
		return m, nil
	case "d":
		if selected {
			m.confirm(fmt.Sprintf("Remove %q?", title), func() (string, error) {
				if _, err := m.backend.Remove(title); err != nil {
					return "", err
				}
				return fmt.Sprintf("Removed %s", title), nil
			})
		}
		return m, nil
	case "D":
		m.confirm("Remove ALL stories?", func() (string, error) {
			n, err := m.backend.RemoveAll()
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Removed %d stories", n), nil
		})
		return m, nil
	}
	return m.forward(msg)
}

func (m Dashboard) updateView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = modeList
		return m, nil
	case "e":
		return m, m.openEdit(m.current)
	}
	return m.forward(msg)
}

func (m Dashboard) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editor.Blur()
		m.mode = modeList
		m.status = "Edit cancelled"
		return m, nil
	case "ctrl+s":
		m.editor.Blur()
		m.mode = modeList
		if err := m.backend.Edit(m.current, m.editor.Value()); err != nil {
			m.err = err
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Saved %s", m.current))
		return m, nil
	}
	return m.forward(msg)
}

func (m Dashboard) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.mode = modeList
		return m, nil
	case "enter":
		m.input.Blur()
		m.mode = modeList
		newTitle := strings.TrimSpace(m.input.Value())
		if err := m.backend.Rename(m.current, newTitle); err != nil {
			m.err = err
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Renamed %s to %s", m.current, newTitle))
		return m, m.reload()
	}
	return m.forward(msg)
}

func (m Dashboard) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeList
		status, err := m.confirmAction()
		m.confirmAction = nil
		if err != nil {
			m.err = err
			return m, nil
		}
		m.setStatus(status)
		return m, m.reload()
	case "n", "N", "esc", "q":
		m.mode = modeList
		m.confirmAction = nil
		m.status = "Cancelled"
	}
	return m, nil
}

// forward passes msg to the component that owns the current mode.
func (m Dashboard) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode {
	case modeView:
		m.viewer, cmd = m.viewer.Update(msg)
	case modeEdit:
		m.editor, cmd = m.editor.Update(msg)
	case modeRename:
		m.input, cmd = m.input.Update(msg)
	case modeList:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *Dashboard) selected() (string, bool) {
	item, ok := m.list.SelectedItem().(storyItem)
	return string(item), ok
}

func (m *Dashboard) openView(title string) {
	content, err := m.backend.Get(title)
	if err != nil {
		m.err = err
		return
	}
	m.current = title
	m.viewer.SetContent(content)
	m.viewer.GotoTop()
	m.mode = modeView
}

func (m *Dashboard) openEdit(title string) tea.Cmd {
	content, err := m.backend.Get(title)
	if err != nil {
		m.err = err
		return nil
	}
	m.current = title
	m.editor.SetValue(content)
	m.mode = modeEdit
	return m.editor.Focus()
}

func (m *Dashboard) openRename(title string) tea.Cmd {
	m.current = title
	m.input.SetValue(title)
	m.input.CursorEnd()
	m.mode = modeRename
	return m.input.Focus()
}

func (m *Dashboard) confirm(prompt string, action func() (string, error)) {
	m.confirmPrompt = prompt
	m.confirmAction = action
	m.mode = modeConfirm
}

func (m *Dashboard) setStatus(s string) {
	m.status = s
	m.err = nil
}

func (m *Dashboard) reload() tea.Cmd {
	titles, err := m.backend.Titles()
	if err != nil {
		m.err = fmt.Errorf("list stories: %w", err)
		return nil
	}
	items := make([]list.Item, len(titles))
	for i, t := range titles {
		items[i] = storyItem(t)
	}
	return m.list.SetItems(items)
}

func (m *Dashboard) resize(width, height int) {
	bodyHeight := max(height-4, 1)
	m.list.SetSize(width, bodyHeight)
	m.viewer.Width = max(width-4, 1)
	m.viewer.Height = max(bodyHeight-2, 1)
	m.editor.SetWidth(max(width-4, 1))
	m.editor.SetHeight(max(bodyHeight-2, 1))
	m.input.Width = max(width-16, 1)
}

func (m Dashboard) View() string {
	var body string
	switch m.mode {
	case modeView:
		body = StyleHeader.Render(m.current) + "\n" + StyleStoryBox.Render(m.viewer.View())
	case modeEdit:
		body = StyleHeader.Render(Heading("editing")+": "+m.current) + "\n" + m.editor.View()
	case modeRename:
		body = StyleHeader.Render(Heading("rename")+": "+m.current) + "\n\n" + m.input.View()
	case modeConfirm:
		body = m.list.View() + "\n" + StyleWarning.Render(m.confirmPrompt+" [y/N]")
	default:
		body = m.list.View()
	}

	footer := StyleSubtle.Render(m.help())
	switch {
	case m.err != nil:
		footer = StyleError.Render("✗ "+m.err.Error()) + "\n" + footer
	case m.status != "":
		footer = StyleSuccess.Render("✓ "+m.status) + "\n" + footer
	}
	return body + "\n" + footer
}

func (m Dashboard) help() string {
	switch m.mode {
	case modeView:
		return "↑/↓ scroll • e edit • esc back"
	case modeEdit:
		return "ctrl+s save • esc cancel"
	case modeRename:
		return "enter rename • esc cancel"
	case modeConfirm:
		return "y confirm • n cancel"
	default:
		return "enter view • e edit • r rename • d remove • D remove all • / filter • q quit"
	}
}
