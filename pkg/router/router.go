package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/enessquik/whatsapp-video-bot/pkg/bus"
)

// Invocation is one parsed command invocation handed to a handler.
type Invocation struct {
	Msg  bus.Message
	Name string   // canonical command name
	Args []string // whitespace-split tokens after the command word
}

// Arg returns the i-th argument or "".
func (inv *Invocation) Arg(i int) string {
	if i < 0 || i >= len(inv.Args) {
		return ""
	}
	return inv.Args[i]
}

type Handler func(ctx context.Context, inv *Invocation) error

// Command binds a set of aliases to one handler. Aliases are matched
// against the first whitespace-delimited token of the message, lowercased,
// so "/q" and "/qm" never shadow each other.
type Command struct {
	Name    string
	Aliases []string
	Handler Handler
}

type Router struct {
	byAlias map[string]*Command
}

func New() *Router {
	return &Router{byAlias: make(map[string]*Command)}
}

// Register adds a command to the dispatch table. Registering an alias twice
// is a configuration bug and fails so the process refuses to start.
func (r *Router) Register(cmd *Command) error {
	if cmd.Name == "" || len(cmd.Aliases) == 0 || cmd.Handler == nil {
		return fmt.Errorf("command %q is incomplete", cmd.Name)
	}
	for _, alias := range cmd.Aliases {
		key := strings.ToLower(alias)
		if prev, exists := r.byAlias[key]; exists {
			return fmt.Errorf("alias %q registered by both %q and %q", alias, prev.Name, cmd.Name)
		}
		r.byAlias[key] = cmd
	}
	return nil
}

// MustRegister panics on registration error, for startup wiring.
func (r *Router) MustRegister(cmd *Command) {
	if err := r.Register(cmd); err != nil {
		panic(err)
	}
}

// Dispatch matches the message's first token against the table. The second
// return value reports whether a command matched at all; unmatched text
// falls through to link detection in the caller.
func (r *Router) Dispatch(ctx context.Context, msg bus.Message) (bool, error) {
	fields := strings.Fields(msg.Text)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, ok := r.byAlias[strings.ToLower(fields[0])]
	if !ok {
		return false, nil
	}
	inv := &Invocation{Msg: msg, Name: cmd.Name, Args: fields[1:]}
	return true, cmd.Handler(ctx, inv)
}
