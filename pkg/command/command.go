// Package command maps command names, aliases and keyboard shortcuts to
// editor operations.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dixieflatline76/imgedit/pkg/editor"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
	// ErrQuit is returned by the quit command to stop the caller's loop.
	ErrQuit = errors.New("quit")
)

// Handler runs one command against a session and returns a status message.
type Handler func(ctx context.Context, s *editor.Session, args []string) (string, error)

// Command describes one dispatchable operation.
type Command struct {
	Name     string
	Aliases  []string
	Shortcut string // keyboard shortcut such as "ctrl+o", optional
	Usage    string // argument synopsis
	Summary  string
	Run      Handler
}

// Registry is the dispatch table.
type Registry struct {
	commands []*Command
	index    map[string]*Command
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]*Command)}
}

// Register adds c under its name, aliases and shortcut.
func (r *Registry) Register(c *Command) error {
	if c.Name == "" || c.Run == nil {
		return fmt.Errorf("command needs a name and a handler")
	}
	keys := append([]string{c.Name}, c.Aliases...)
	if c.Shortcut != "" {
		keys = append(keys, c.Shortcut)
	}
	for _, k := range keys {
		if _, dup := r.index[strings.ToLower(k)]; dup {
			return fmt.Errorf("command %q: %q already registered", c.Name, k)
		}
	}
	for _, k := range keys {
		r.index[strings.ToLower(k)] = c
	}
	r.commands = append(r.commands, c)
	return nil
}

// Lookup finds a command by name, alias or shortcut, ignoring case.
func (r *Registry) Lookup(name string) (*Command, bool) {
	c, ok := r.index[strings.ToLower(name)]
	return c, ok
}

// Commands returns the registered commands sorted by name.
func (r *Registry) Commands() []*Command {
	out := append([]*Command(nil), r.commands...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Run tokenizes line and dispatches it. Blank lines and lines starting with
// '#' do nothing.
func (r *Registry) Run(ctx context.Context, s *editor.Session, line string) (string, error) {
	args, err := Split(line)
	if err != nil {
		return "", err
	}
	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return "", nil
	}

	c, ok := r.Lookup(args[0])
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	msg, err := c.Run(ctx, s, args[1:])
	if errors.Is(err, ErrUsage) {
		return "", fmt.Errorf("%w: %s %s", ErrUsage, c.Name, c.Usage)
	}
	return msg, err
}

// RunScript runs the ';' separated commands in script in order and stops at
// the first error. It returns the messages of the commands that ran.
func (r *Registry) RunScript(ctx context.Context, s *editor.Session, script string) ([]string, error) {
	var msgs []string
	for _, line := range strings.Split(script, ";") {
		msg, err := r.Run(ctx, s, line)
		if err != nil {
			return msgs, fmt.Errorf("%s: %w", strings.TrimSpace(line), err)
		}
		if msg != "" {
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

// Split breaks line into whitespace separated fields. Double quotes group a
// field that contains spaces.
func Split(line string) ([]string, error) {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
		inField bool
	)
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuote = !inQuote
			inField = true
		case !inQuote && (ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'):
			if inField {
				fields = append(fields, cur.String())
				cur.Reset()
				inField = false
			}
		default:
			cur.WriteRune(ch)
			inField = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", line)
	}
	if inField {
		fields = append(fields, cur.String())
	}
	return fields, nil
}
