package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"kimeweb/internal/keycode"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "https://kimeweb.local/schema/config.json"

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// validateSchema checks the structure of a JSON-normalized document.
func validateSchema(doc []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	var instance any
	if err := json.Unmarshal(doc, &instance); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// ValidateConfig performs semantic validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if engineErrs := validateEngine(&c.Engine); len(engineErrs) > 0 {
		errs = append(errs, engineErrs...)
	}
	if layoutErrs := validateLayouts(c.Layouts); len(layoutErrs) > 0 {
		errs = append(errs, layoutErrs...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateEngine(e *EngineConfig) ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(e.DefaultCategory) {
	case CategoryHangul, CategoryLatin:
	default:
		errs = append(errs, ValidationError{
			Field:   "engine.default_category",
			Message: fmt.Sprintf("unknown category %q", e.DefaultCategory),
		})
	}

	seen := make(map[keycode.Key]string, len(e.Hotkeys))
	for i, hk := range e.Hotkeys {
		field := fmt.Sprintf("engine.hotkeys[%d]", i)

		key, err := keycode.ParseKey(hk.Key)
		if err != nil {
			errs = append(errs, ValidationError{Field: field + ".key", Message: err.Error()})
		} else if prev, dup := seen[key]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".key",
				Message: fmt.Sprintf("%q duplicates %q", hk.Key, prev),
			})
		} else {
			seen[key] = hk.Key
		}

		switch hk.Action {
		case ActionToggle, ActionHangul, ActionLatin:
		default:
			errs = append(errs, ValidationError{
				Field:   field + ".action",
				Message: fmt.Sprintf("unknown action %q", hk.Action),
			})
		}

		switch hk.Result {
		case "", ResultConsume, ResultBypass:
		default:
			errs = append(errs, ValidationError{
				Field:   field + ".result",
				Message: fmt.Sprintf("unknown result %q", hk.Result),
			})
		}
	}

	if e.Hangul.Layout == "" {
		errs = append(errs, ValidationError{
			Field:   "engine.hangul.layout",
			Message: "layout is required",
		})
	}

	return errs
}

func validateLayouts(layouts map[string]map[string]string) ValidationErrors {
	var errs ValidationErrors

	for name, entries := range layouts {
		if name == "" {
			errs = append(errs, ValidationError{Field: "layouts", Message: "empty layout name"})
			continue
		}
		for spec, jamo := range entries {
			field := fmt.Sprintf("layouts.%s[%s]", name, spec)
			if _, err := keycode.ParseKey(spec); err != nil {
				errs = append(errs, ValidationError{Field: field, Message: err.Error()})
			}
			if utf8.RuneCountInString(jamo) != 1 {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("expected a single jamo, got %q", jamo),
				})
			}
		}
	}

	return errs
}
