package repository

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/reshetovitsme/forum-topics-bot/internal/modules/settings/domain"
	sharedErrors "github.com/reshetovitsme/forum-topics-bot/internal/shared/errors"
	"github.com/reshetovitsme/forum-topics-bot/internal/shared/kvfile"
	"github.com/samber/oops"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "https://forum-topics-bot.local/bot_config.schema.json"

const settingsSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"bot_token":         {"type": "string"},
		"main_name":         {"type": "string"},
		"themes":            {"type": "array", "items": {"type": "string"}},
		"hello_messages":    {"type": "array", "items": {"type": "string"}},
		"template_messages": {"type": "array", "items": {"type": "string"}}
	}
}`

// FileStorage implements Repository on a single JSON file.
type FileStorage struct {
	store  *kvfile.Store[domain.Settings]
	schema *jsonschema.Schema
}

// NewFileStorage creates a settings repository backed by path.
func NewFileStorage(path string) (Repository, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	return &FileStorage{
		store:  kvfile.New[domain.Settings](path),
		schema: schema,
	}, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(settingsSchema))
	if err != nil {
		return nil, oops.With("context", "failed to parse settings schema").Wrap(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, oops.With("context", "failed to register settings schema").Wrap(err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return nil, oops.With("context", "failed to compile settings schema").Wrap(err)
	}
	return schema, nil
}

func (s *FileStorage) Load() (*domain.Settings, error) {
	data, err := s.store.Read()
	if err != nil {
		if errors.Is(err, sharedErrors.ErrNotFound) {
			return domain.Default(), nil
		}
		return nil, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, oops.With("path", s.store.Path(), "context", "settings file is not valid JSON").Wrap(err)
	}
	if err := s.schema.Validate(inst); err != nil {
		return nil, oops.With("path", s.store.Path(), "context", "settings file does not match schema").Wrap(err)
	}

	var settings domain.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, oops.With("path", s.store.Path(), "context", "failed to unmarshal settings").Wrap(err)
	}
	settings.FillDefaults()
	return &settings, nil
}

func (s *FileStorage) Save(settings *domain.Settings) error {
	return s.store.Save(*settings)
}
