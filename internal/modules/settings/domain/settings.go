package domain

import "fmt"

// Settings is the runtime-mutable bot configuration persisted in bot_config.json.
type Settings struct {
	BotToken         string   `json:"bot_token"`
	MainName         string   `json:"main_name"`
	Themes           []string `json:"themes"`
	HelloMessages    []string `json:"hello_messages"`
	TemplateMessages []string `json:"template_messages"`
}

// Default returns the settings used when nothing has been persisted yet.
func Default() *Settings {
	return &Settings{
		MainName: "Main room",
		Themes:   []string{"Board", "Classroom", "News", "Team 1", "Team 2"},
		HelloMessages: []string{
			"This is topic 1",
			"This is topic 2",
			"This is topic 3",
			"This is topic 4",
			"This is topic 5",
		},
		TemplateMessages: []string{
			"👋 Welcome to the new group!",
			"📌 Group rules:\n1. Respect each other\n2. No spam\n3. Stay on topic",
			"💡 To get started, introduce yourself in the chat!",
		},
	}
}

// FillDefaults replaces fields missing from a persisted document with defaults.
// Empty lists are kept: an operator may have deleted every theme on purpose.
func (s *Settings) FillDefaults() {
	d := Default()
	if s.MainName == "" {
		s.MainName = d.MainName
	}
	if s.Themes == nil {
		s.Themes = d.Themes
	}
	if s.HelloMessages == nil {
		s.HelloMessages = d.HelloMessages
	}
	if s.TemplateMessages == nil {
		s.TemplateMessages = d.TemplateMessages
	}
}

// Clone returns a deep copy safe to hand to readers.
func (s *Settings) Clone() *Settings {
	return &Settings{
		BotToken:         s.BotToken,
		MainName:         s.MainName,
		Themes:           cloneStrings(s.Themes),
		HelloMessages:    cloneStrings(s.HelloMessages),
		TemplateMessages: cloneStrings(s.TemplateMessages),
	}
}

// cloneStrings keeps the nil/empty distinction FillDefaults relies on.
func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// WelcomeFor returns the welcome text paired with theme i by position,
// or a generated one naming the theme when no message is paired.
func (s *Settings) WelcomeFor(i int) string {
	if i >= 0 && i < len(s.HelloMessages) && s.HelloMessages[i] != "" {
		return s.HelloMessages[i]
	}
	name := ""
	if i >= 0 && i < len(s.Themes) {
		name = s.Themes[i]
	}
	return DefaultWelcome(name)
}

// DefaultWelcome is the fallback welcome text for a theme.
func DefaultWelcome(theme string) string {
	return fmt.Sprintf("Welcome to the topic '%s'", theme)
}
