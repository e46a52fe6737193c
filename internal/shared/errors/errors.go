package errors

import "errors"

var (
	ErrMissingBotToken = errors.New("bot token is required: set bot_token in settings or TELEGRAM_BOT_TOKEN")
	ErrNotFound        = errors.New("not found")
	ErrInvalidIndex    = errors.New("index out of range")
	ErrUnknownParam    = errors.New("unknown parameter")
	ErrThemeExists     = errors.New("theme already exists")
	ErrEmptyValue      = errors.New("value must not be empty")

	// Provisioning preconditions.
	ErrNotGroup      = errors.New("command works only in groups")
	ErrNoThemes      = errors.New("theme list is empty")
	ErrNotForum      = errors.New("chat is not a forum")
	ErrRunInProgress = errors.New("provisioning already running for this chat")
)
