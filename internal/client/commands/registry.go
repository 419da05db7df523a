package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"luchess/internal/client/api"
	"luchess/internal/client/display"
)

type Session interface {
	GetAPIBaseURL() string
	SetAPIBaseURL(string)
	GetCurrentGame() string
	SetCurrentGame(string)
	GetCurrentUser() string
	SetCurrentUser(string)
	GetAuthToken() string
	SetAuthToken(string)
	GetUsername() string
	SetUsername(string)
	GetLastMoveCount() int
	SetLastMoveCount(int)
	GetClient() any
	IsVerbose() bool
	SetGameState(any)
	GetGameState() *api.GameResponse
	SetPlayerColor(string)
	GetPlayerColor() string
}

// Help groups, in display order
const (
	GroupGame    = "Game"
	GroupPlay    = "Play"
	GroupHistory = "History"
	GroupAccount = "Account"
	GroupUtility = "Utility"
)

var groupOrder = []string{GroupGame, GroupPlay, GroupHistory, GroupAccount, GroupUtility}

// Command is one line of the REPL vocabulary. ShortName is a single-key alias.
type Command struct {
	Name        string
	ShortName   string
	Group       string
	Description string
	Usage       string
	Handler     func(Session, []string) error
}

// Registry resolves input lines to commands
type Registry struct {
	session Session
	byName  map[string]*Command // names and aliases
	ordered []*Command          // registration order, for help
	out     io.Writer
}

func NewRegistry(session Session) *Registry {
	r := &Registry{
		session: session,
		byName:  make(map[string]*Command),
		out:     os.Stdout,
	}

	r.registerGameCommands()
	r.registerAuthCommands()
	r.registerDebugCommands()

	r.Register(&Command{
		Name:        "help",
		ShortName:   "?",
		Group:       GroupUtility,
		Description: "Show available commands",
		Usage:       "help [command]",
		Handler:     r.helpHandler,
	})
	r.Register(&Command{
		Name:        "exit",
		ShortName:   "x",
		Group:       GroupUtility,
		Description: "Exit the client",
		Usage:       "exit",
		Handler:     exitHandler,
	})

	return r
}

// Register adds cmd under its name and alias. Later registrations win.
func (r *Registry) Register(cmd *Command) {
	if _, taken := r.byName[cmd.Name]; !taken {
		r.ordered = append(r.ordered, cmd)
	}
	r.byName[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.byName[cmd.ShortName] = cmd
	}
}

// Lookup finds a command by name or alias
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.byName[name]
	return cmd, ok
}

// Group lists the commands of a help group in registration order
func (r *Registry) Group(group string) []*Command {
	var cmds []*Command
	for _, cmd := range r.ordered {
		if cmd.Group == group {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func (r *Registry) Execute(input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	cmd, ok := r.Lookup(parts[0])
	if !ok {
		fmt.Fprintf(r.out, "%sUnknown command: %s%s\n", display.Red, parts[0], display.Reset)
		fmt.Fprintf(r.out, "Type 'help' for available commands\n")
		return
	}

	if cl, ok := r.session.GetClient().(*api.Client); ok {
		cl.SetVerbose(r.session.IsVerbose())
	}

	if err := cmd.Handler(r.session, parts[1:]); err != nil {
		fmt.Fprintf(r.out, "%sError: %s%s\n", display.Red, describeError(err), display.Reset)
	}
}

// describeError prefers the server's message over the bare status
func describeError(err error) string {
	if se, ok := err.(*api.StatusError); ok && se.Message != "" {
		return fmt.Sprintf("%s (%d)", se.Message, se.StatusCode)
	}
	return err.Error()
}

func (r *Registry) helpHandler(s Session, args []string) error {
	if len(args) > 0 {
		cmd, ok := r.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(r.out, "\n%s%s%s - %s\n", display.Cyan, cmd.Name, display.Reset, cmd.Description)
		if cmd.ShortName != "" {
			fmt.Fprintf(r.out, "Short form: %s%s%s\n", display.Cyan, cmd.ShortName, display.Reset)
		}
		fmt.Fprintf(r.out, "Usage: %s\n", cmd.Usage)
		return nil
	}

	fmt.Fprintf(r.out, "\n%sAvailable Commands:%s\n", display.Cyan, display.Reset)
	for _, group := range groupOrder {
		cmds := r.Group(group)
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(r.out, "\n%s%s:%s\n", display.Yellow, group, display.Reset)
		for _, cmd := range cmds {
			alias := "   "
			if cmd.ShortName != "" {
				alias = fmt.Sprintf("[%s%s%s]", display.Cyan, cmd.ShortName, display.Reset)
			}
			fmt.Fprintf(r.out, "  %s %-10s %s\n", alias, cmd.Name, cmd.Description)
		}
	}

	fmt.Fprintf(r.out, "\nType 'help <command>' for detailed usage\n")
	fmt.Fprintf(r.out, "Add '-v' to any command for verbose output\n")
	return nil
}

func exitHandler(s Session, args []string) error {
	fmt.Printf("%sGoodbye!%s\n", display.Cyan, display.Reset)
	os.Exit(0)
	return nil
}
