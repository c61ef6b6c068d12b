package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry manages command registration and lookup. Names are
// case-insensitive and stored without a prefix.
type Registry struct {
	commands map[string]*Command
	mu       sync.RWMutex
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*Command),
	}
}

// Register registers a new command. Registering a duplicate name is an
// error.
func (r *Registry) Register(cmd *Command) error {
	if cmd == nil {
		return fmt.Errorf("command cannot be nil")
	}
	if cmd.Name == "" {
		return fmt.Errorf("command name cannot be empty")
	}

	name := normalize(cmd.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %s already registered", name)
	}

	cmd.Name = name
	r.commands[name] = cmd
	return nil
}

// Get retrieves a command by name.
func (r *Registry) Get(name string) (*Command, bool) {
	name = normalize(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, exists := r.commands[name]
	return cmd, exists
}

// List returns all registered commands sorted by name.
func (r *Registry) List() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })

	return cmds
}

// Parse extracts a registered command invocation from message text.
// The prefix (/ or !) and any @botname suffix are stripped. ok is false
// when the text is not a command or the command is unknown.
func (r *Registry) Parse(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || (text[0] != '/' && text[0] != '!') {
		return "", "", false
	}

	parts := strings.SplitN(text[1:], " ", 2)
	name = normalize(parts[0])
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	if _, exists := r.Get(name); !exists {
		return "", "", false
	}
	return name, args, true
}

// normalize also folds underscores to hyphens; Telegram command names
// cannot contain hyphens, so /meniu_gau must find meniu-gau.
func normalize(name string) string {
	name = strings.TrimPrefix(strings.TrimPrefix(name, "/"), "!")
	if at := strings.Index(name, "@"); at > 0 {
		name = name[:at]
	}
	name = strings.ReplaceAll(name, "_", "-")
	return strings.ToLower(name)
}
