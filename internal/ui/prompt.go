// Package ui renders the kiosk's terminal prompts: field-by-field form
// entry, yes/no confirmations and status lines. All reads and writes go
// through injected streams so command tests can drive the prompts.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gatherkit/gatekit/pkg/types"
)

// Prompter reads operator input line by line.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter over the given streams.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// ReadLine reads one trimmed line of input. io.EOF is returned when the
// stream ends, which the scan loop treats as a quit.
func (p *Prompter) ReadLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptField asks for one form field's value. Required fields are marked
// with an asterisk; an empty input keeps the current value. The returned
// value is typed per field kind: string for text inputs, the option value
// for select and radio, bool for checkbox. Returning (nil, nil) means the
// operator left the field unanswered.
func (p *Prompter) PromptField(field types.FormField, required bool, current any) (any, error) {
	marker := ""
	if required {
		marker = " *"
	}

	switch field.Type {
	case types.FieldSelect, types.FieldRadio:
		return p.promptChoice(field, marker, current)
	case types.FieldCheckbox:
		return p.promptCheckbox(field, marker, current)
	default:
		return p.promptText(field, marker, current)
	}
}

func (p *Prompter) promptText(field types.FormField, marker string, current any) (any, error) {
	hint := field.Placeholder
	if s, ok := current.(string); ok && s != "" {
		hint = s
	}
	if hint != "" {
		fmt.Fprintf(p.out, "%s%s [%s]: ", field.Label, marker, hint)
	} else {
		fmt.Fprintf(p.out, "%s%s: ", field.Label, marker)
	}

	line, err := p.ReadLine()
	if err != nil {
		return nil, err
	}
	if line == "" {
		return current, nil
	}
	return line, nil
}

func (p *Prompter) promptChoice(field types.FormField, marker string, current any) (any, error) {
	fmt.Fprintf(p.out, "%s%s:\n", field.Label, marker)
	for i, opt := range field.Options {
		selected := " "
		if v, ok := current.(string); ok && v == opt.Value {
			selected = "*"
		}
		fmt.Fprintf(p.out, " %s %d) %s\n", selected, i+1, opt.Label)
	}
	fmt.Fprintf(p.out, "Choice: ")

	line, err := p.ReadLine()
	if err != nil {
		return nil, err
	}
	if line == "" {
		return current, nil
	}

	// accept an option number or the option value itself
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(field.Options) {
		return field.Options[n-1].Value, nil
	}
	for _, opt := range field.Options {
		if line == opt.Value {
			return opt.Value, nil
		}
	}

	fmt.Fprintf(p.out, "Unknown choice %q, field left unchanged\n", line)
	return current, nil
}

func (p *Prompter) promptCheckbox(field types.FormField, marker string, current any) (any, error) {
	hint := "y/N"
	if b, ok := current.(bool); ok && b {
		hint = "Y/n"
	}
	fmt.Fprintf(p.out, "%s%s [%s]: ", field.Label, marker, hint)

	line, err := p.ReadLine()
	if err != nil {
		return nil, err
	}
	if line == "" {
		return current, nil
	}
	switch strings.ToLower(line) {
	case "y", "yes", "true", "1":
		return true, nil
	case "n", "no", "false", "0":
		return false, nil
	}
	fmt.Fprintf(p.out, "Unknown answer %q, field left unchanged\n", line)
	return current, nil
}

// Confirm asks a yes/no question. An empty response takes the default.
func (p *Prompter) Confirm(message string, defaultYes bool) (bool, error) {
	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}
	fmt.Fprintf(p.out, "%s [%s]: ", message, hint)

	line, err := p.ReadLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ReadSecret reads one line without echo markers. Terminals attached to a
// kiosk are assumed private, so this is a plain read with a distinct prompt.
func (p *Prompter) ReadSecret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	return p.ReadLine()
}

// Info displays an informational message.
func (p *Prompter) Info(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Success displays a success message.
func (p *Prompter) Success(format string, args ...any) {
	fmt.Fprintf(p.out, "✓ "+format+"\n", args...)
}

// Warn displays a warning message.
func (p *Prompter) Warn(format string, args ...any) {
	fmt.Fprintf(p.out, "! "+format+"\n", args...)
}

// Error displays an error message.
func (p *Prompter) Error(format string, args ...any) {
	fmt.Fprintf(p.out, "✗ "+format+"\n", args...)
}
