package service

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/reshetovitsme/forum-topics-bot/internal/modules/settings/domain"
	"github.com/reshetovitsme/forum-topics-bot/internal/modules/settings/repository"
	sharedErrors "github.com/reshetovitsme/forum-topics-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Service owns the in-memory settings. The in-memory copy is authoritative for the
// process lifetime; every mutation is persisted right away and a failed write is
// logged, not returned.
type Service struct {
	repo    repository.Repository
	logger  *slog.Logger
	mu      sync.Mutex
	current *domain.Settings
}

// New loads the persisted settings (or defaults).
func New(repo repository.Repository, logger *slog.Logger) (*Service, error) {
	current, err := repo.Load()
	if err != nil {
		return nil, oops.With("context", "failed to load settings").Wrap(err)
	}
	return &Service{
		repo:    repo,
		logger:  logger,
		current: current,
	}, nil
}

// Snapshot returns a copy of the current settings.
func (s *Service) Snapshot() *domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// update applies fn to a copy of the settings, swaps it in and persists it.
func (s *Service) update(fn func(*domain.Settings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.current.Clone()
	if err := fn(working); err != nil {
		return err
	}
	s.current = working

	if err := s.repo.Save(working); err != nil {
		s.logger.Error("Failed to persist settings", "error", err)
	}
	return nil
}

// SetBotToken stores a new credential. It takes effect after a restart.
func (s *Service) SetBotToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return sharedErrors.ErrEmptyValue
	}
	return s.update(func(st *domain.Settings) error {
		st.BotToken = token
		return nil
	})
}

// SetMainName changes the name given to the default topic.
func (s *Service) SetMainName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return sharedErrors.ErrEmptyValue
	}
	return s.update(func(st *domain.Settings) error {
		st.MainName = name
		return nil
	})
}

// AddTheme appends a theme with its welcome message. An empty hello gets the default text.
func (s *Service) AddTheme(name, hello string) error {
	name = strings.TrimSpace(name)
	hello = strings.TrimSpace(hello)
	if name == "" {
		return sharedErrors.ErrEmptyValue
	}
	if hello == "" {
		hello = domain.DefaultWelcome(name)
	}
	return s.update(func(st *domain.Settings) error {
		if lo.Contains(st.Themes, name) {
			return oops.With("theme", name).Wrap(sharedErrors.ErrThemeExists)
		}
		padHello(st)
		st.Themes = append(st.Themes, name)
		st.HelloMessages = append(st.HelloMessages, hello)
		return nil
	})
}

// DeleteTheme removes a theme by 1-based number or by exact name and returns its name.
// The welcome message at the same position goes with it.
func (s *Service) DeleteTheme(query string) (string, error) {
	query = strings.TrimSpace(query)
	var removed string
	err := s.update(func(st *domain.Settings) error {
		idx := -1
		if n, err := strconv.Atoi(query); err == nil {
			if n < 1 || n > len(st.Themes) {
				return oops.With("index", n, "themes", len(st.Themes)).Wrap(sharedErrors.ErrInvalidIndex)
			}
			idx = n - 1
		} else {
			idx = lo.IndexOf(st.Themes, query)
			if idx < 0 {
				return oops.With("theme", query).Wrap(sharedErrors.ErrNotFound)
			}
		}
		removed = st.Themes[idx]
		st.Themes = append(st.Themes[:idx], st.Themes[idx+1:]...)
		if idx < len(st.HelloMessages) {
			st.HelloMessages = append(st.HelloMessages[:idx], st.HelloMessages[idx+1:]...)
		}
		return nil
	})
	return removed, err
}

// EditTheme renames theme n (1-based) and returns the old name.
func (s *Service) EditTheme(n int, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", sharedErrors.ErrEmptyValue
	}
	var old string
	err := s.update(func(st *domain.Settings) error {
		if n < 1 || n > len(st.Themes) {
			return oops.With("index", n, "themes", len(st.Themes)).Wrap(sharedErrors.ErrInvalidIndex)
		}
		old = st.Themes[n-1]
		st.Themes[n-1] = name
		return nil
	})
	return old, err
}

// EditHello replaces the welcome message of theme n (1-based) and returns the old text.
func (s *Service) EditHello(n int, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", sharedErrors.ErrEmptyValue
	}
	var old string
	err := s.update(func(st *domain.Settings) error {
		if n < 1 || n > len(st.Themes) {
			return oops.With("index", n, "themes", len(st.Themes)).Wrap(sharedErrors.ErrInvalidIndex)
		}
		padHello(st)
		old = st.HelloMessages[n-1]
		st.HelloMessages[n-1] = text
		return nil
	})
	return old, err
}

// SetTheme renames theme n (1-based).
func (s *Service) SetTheme(n int, name string) error {
	_, err := s.EditTheme(n, name)
	return err
}

// SetHello replaces the welcome message of theme n (1-based).
func (s *Service) SetHello(n int, text string) error {
	_, err := s.EditHello(n, text)
	return err
}

// Apply handles "/settings set <param> <value>": bot_token, main_name, theme_N, hello_N.
func (s *Service) Apply(param, value string) error {
	switch {
	case param == "bot_token":
		return s.SetBotToken(value)
	case param == "main_name":
		return s.SetMainName(value)
	case strings.HasPrefix(param, "theme_"):
		n, err := strconv.Atoi(strings.TrimPrefix(param, "theme_"))
		if err != nil {
			return oops.With("param", param).Wrap(sharedErrors.ErrUnknownParam)
		}
		return s.SetTheme(n, value)
	case strings.HasPrefix(param, "hello_"):
		n, err := strconv.Atoi(strings.TrimPrefix(param, "hello_"))
		if err != nil {
			return oops.With("param", param).Wrap(sharedErrors.ErrUnknownParam)
		}
		return s.SetHello(n, value)
	default:
		return oops.With("param", param).Wrap(sharedErrors.ErrUnknownParam)
	}
}

// padHello fills missing welcome messages so that index i pairs with theme i.
func padHello(st *domain.Settings) {
	for i := len(st.HelloMessages); i < len(st.Themes); i++ {
		st.HelloMessages = append(st.HelloMessages, domain.DefaultWelcome(st.Themes[i]))
	}
}
