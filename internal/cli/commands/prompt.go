package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// ErrNonInteractive is returned when input is needed but stdin is not a terminal
var ErrNonInteractive = errors.New("input required in non-interactive mode")

// Prompter collects interactive input
type Prompter interface {
	Select(label string, items []string) (int, error)
	Input(label string) (string, error)
	Password(label string) (string, error)
	Confirm(question string) (bool, error)
}

// TerminalPrompter prompts on the controlling terminal with promptui and x/term
type TerminalPrompter struct {
	Out io.Writer
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (p TerminalPrompter) Select(label string, items []string) (int, error) {
	if !stdinIsTerminal() {
		return 0, fmt.Errorf("%w: %s", ErrNonInteractive, strings.ToLower(label))
	}

	prompt := promptui.Select{
		Label: label,
		Items: items,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "{{ . | green }}",
		},
	}
	index, _, err := prompt.Run()
	if err != nil {
		return 0, fmt.Errorf("selection cancelled: %w", err)
	}
	return index, nil
}

func (p TerminalPrompter) Input(label string) (string, error) {
	if !stdinIsTerminal() {
		return "", fmt.Errorf("%w: %s", ErrNonInteractive, strings.ToLower(label))
	}

	prompt := promptui.Prompt{Label: label}
	value, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("input cancelled: %w", err)
	}
	return strings.TrimSpace(value), nil
}

func (p TerminalPrompter) Password(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%w: %s", ErrNonInteractive, strings.ToLower(label))
	}

	fmt.Fprintf(p.Out, "%s: ", label)
	bytePassword, err := term.ReadPassword(fd)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

func (p TerminalPrompter) Confirm(question string) (bool, error) {
	if !stdinIsTerminal() {
		return false, fmt.Errorf("%w: pass --yes to confirm", ErrNonInteractive)
	}

	prompt := promptui.Prompt{Label: question, IsConfirm: true}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
