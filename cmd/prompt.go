package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"

	"github.com/kennyg/persona-kit/internal/ui"
)

// errNoTerminal is returned when a prompt is needed but stdin is not a terminal.
var errNoTerminal = errors.New("no terminal for prompts; pass --from-file")

// formField is one question asked while creating a record. Exactly one of
// Value and Lines is set; Lines collects one entry per non-empty line.
type formField struct {
	Title       string
	Description string
	Value       *string
	Lines       *[]string
	Required    bool
}

func required(title string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", strings.ToLower(title))
		}
		return nil
	}
}

// runForm asks every field in one form. Multi-line fields are collected as
// text and split afterwards.
func runForm(title string, fields []formField) error {
	if !ui.IsInputTTY {
		return errNoTerminal
	}

	texts := make([]string, len(fields))
	var inputs []huh.Field
	inputs = append(inputs, huh.NewNote().Title(title))

	for i := range fields {
		f := fields[i]
		if f.Lines != nil {
			texts[i] = strings.Join(*f.Lines, "\n")
			text := huh.NewText().
				Title(f.Title).
				Description(f.Description).
				Value(&texts[i])
			if f.Required {
				text = text.Validate(required(f.Title))
			}
			inputs = append(inputs, text)
			continue
		}

		input := huh.NewInput().
			Title(f.Title).
			Description(f.Description).
			Value(f.Value)
		if f.Required {
			input = input.Validate(required(f.Title))
		}
		inputs = append(inputs, input)
	}

	if err := huh.NewForm(huh.NewGroup(inputs...)).Run(); err != nil {
		return err
	}

	for i, f := range fields {
		if f.Lines != nil {
			*f.Lines = splitNonEmpty(texts[i])
		}
	}
	return nil
}

// confirm asks a yes/no question. Without a terminal the answer is no.
func confirm(question string) (bool, error) {
	if !ui.IsInputTTY {
		return false, nil
	}
	var ok bool
	err := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

// decodeFile fills v from a YAML file.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
