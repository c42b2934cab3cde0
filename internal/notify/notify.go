// Package notify delivers short user-facing messages ("toasts") from the
// session and course stores to whatever front end is driving them.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/manifoldco/promptui"
)

// Level is the severity of a toast
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier shows user-facing messages
type Notifier interface {
	Success(msg string)
	Warning(msg string)
	Error(msg string)
}

// Console prints toasts to a writer, colored the same way promptui colors its prompts
type Console struct {
	out     io.Writer
	noColor bool
}

// NewConsole creates a console notifier writing to out
func NewConsole(out io.Writer, noColor bool) *Console {
	return &Console{out: out, noColor: noColor}
}

var (
	successStyle = promptui.Styler(promptui.FGGreen)
	warningStyle = promptui.Styler(promptui.FGYellow)
	errorStyle   = promptui.Styler(promptui.FGRed, promptui.FGBold)
)

func (c *Console) Success(msg string) { c.print("✓", successStyle, msg) }
func (c *Console) Warning(msg string) { c.print("!", warningStyle, msg) }
func (c *Console) Error(msg string)   { c.print("✗", errorStyle, msg) }

func (c *Console) print(mark string, style func(interface{}) string, msg string) {
	if c.noColor {
		fmt.Fprintf(c.out, "%s %s\n", mark, msg)
		return
	}
	fmt.Fprintf(c.out, "%s %s\n", style(mark), msg)
}

// Message is a single recorded toast
type Message struct {
	Level Level
	Text  string
}

// Recorder keeps every toast in memory. Used by tests and by front ends that
// render messages themselves.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Warning(msg string) { r.add(LevelWarning, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: msg})
}

// Messages returns a copy of everything recorded so far
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message, if any
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Reset drops all recorded messages
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}

// Discard drops every message
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Warning(string) {}
func (Discard) Error(string)   {}
