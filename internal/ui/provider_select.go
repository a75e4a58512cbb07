package ui

import (
	"fmt"

	"github.com/cesto93/ai-agile-dev/internal/config"
	"github.com/cesto93/ai-agile-dev/internal/llm"
	tea "github.com/charmbracelet/bubbletea"
)

// LLMSelection contains the result of provider + model selection.
type LLMSelection struct {
	Provider string
	Model    string
}

type selectOption struct {
	ID    string
	Label string
	Note  string
}

func providerOptions() []selectOption {
	var options []selectOption
	for _, p := range llm.Providers() {
		note := "key set"
		switch {
		case p == llm.ProviderOllama:
			note = "local"
		case config.ResolveAPIKey(llm.Provider(p)) == "":
			note = "key not set"
		}
		options = append(options, selectOption{ID: p, Label: p, Note: note})
	}
	return options
}

func modelOptions(provider string) []selectOption {
	var options []selectOption
	for _, m := range llm.ModelsForProvider(provider) {
		opt := selectOption{ID: m.ID, Label: m.ID}
		if m.IsDefault {
			opt.Note = "(default)"
		}
		options = append(options, opt)
	}
	return options
}

// PromptLLMSelection runs an interactive provider then model selection flow.
func PromptLLMSelection() (*LLMSelection, error) {
	provider, err := runSelect("Select AI Provider", providerOptions())
	if err != nil {
		return nil, err
	}

	options := modelOptions(provider)
	if len(options) == 0 {
		return &LLMSelection{Provider: provider, Model: llm.DefaultModelForProvider(provider)}, nil
	}
	model, err := runSelect(fmt.Sprintf("Select Model for %s", provider), options)
	if err != nil {
		return nil, err
	}
	return &LLMSelection{Provider: provider, Model: model}, nil
}

func runSelect(title string, options []selectOption) (string, error) {
	finalModel, err := tea.NewProgram(selectModel{title: title, options: options}).Run()
	if err != nil {
		return "", fmt.Errorf("run selection: %w", err)
	}
	result := finalModel.(selectModel)
	if result.quit {
		return "", fmt.Errorf("selection cancelled")
	}
	return result.selected, nil
}

type selectModel struct {
	title    string
	options  []selectOption
	cursor   int
	selected string
	quit     bool
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quit = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.options) == 0 {
				m.quit = true
				return m, tea.Quit
			}
			m.selected = m.options[m.cursor].ID
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m selectModel) View() string {
	s := "\n" + StyleSelectTitle.Render(m.title) + "\n\n"

	for i, opt := range m.options {
		cursor := "  "
		style := StyleSelectNormal
		if m.cursor == i {
			cursor = "▶ "
			style = StyleSelectActive
		}
		line := cursor + style.Render(fmt.Sprintf("%-26s", opt.Label))
		if opt.Note != "" {
			line += StyleSelectDim.Render(" " + opt.Note)
		}
		s += line + "\n"
	}

	s += "\n" + StyleSelectDim.Render("↑/↓ navigate • enter select • esc cancel") + "\n"
	return s
}
