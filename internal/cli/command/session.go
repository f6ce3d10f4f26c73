package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/goliatone/go-undo/internal/cli/repl"
	"github.com/goliatone/go-undo/pkg/cards"
)

// SessionCommand returns the interactive workspace command.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Edit the card library interactively with undo and redo",
		Description: "Reads commands from stdin, one per line. Type \"help\" for the list.\n" +
			"Every push and delete is saved to the configured storage immediately.",
		Action: runSession,
	}
}

func runSession(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := newLogger(c, cfg)
	if err != nil {
		return err
	}

	ctx := c.Context
	rt, err := Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	stopMetrics, err := rt.ServeMetrics()
	if err != nil {
		return err
	}
	defer stopMetrics(context.Background())

	session := NewSession(rt, c.App.Writer)
	return repl.New(c.App.Reader, c.App.Writer, session.Execute).Run(ctx)
}

type sessionCommand struct {
	usage string
	run   func(ctx context.Context, s *Session, args []string) error
}

// Session executes workspace commands against a runtime.
type Session struct {
	rt       *Runtime
	out      io.Writer
	commands map[string]sessionCommand
}

// NewSession creates a session writing results to out.
func NewSession(rt *Runtime, out io.Writer) *Session {
	return &Session{rt: rt, out: out, commands: sessionCommands()}
}

// Execute runs one command line.
func (s *Session) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, ok := s.commands[strings.ToLower(fields[0])]
	if !ok {
		return fmt.Errorf("unknown command %q, type help", fields[0])
	}
	return cmd.run(ctx, s, fields[1:])
}

func sessionCommands() map[string]sessionCommand {
	return map[string]sessionCommand{
		"new": {
			usage: "new <id> [name...]      start editing a fresh card",
			run: func(ctx context.Context, s *Session, args []string) error {
				if len(args) == 0 {
					return cards.ErrCardIDRequired
				}
				card := cards.Card{ID: args[0], Name: strings.Join(args[1:], " ")}
				return s.commit(ctx, cards.MutationCardEdit, card)
			},
		},
		"set": {
			usage: "set <field> <value...>  change a field of the card being edited",
			run: func(ctx context.Context, s *Session, args []string) error {
				if len(args) == 0 {
					return fmt.Errorf("set needs a field")
				}
				return s.commit(ctx, cards.MutationCardEdit, cards.CardEdit{Field: args[0], Value: strings.Join(args[1:], " ")})
			},
		},
		"push": {
			usage: "push                    save the card being edited to the library",
			run: func(ctx context.Context, s *Session, _ []string) error {
				return s.commit(ctx, cards.MutationLibraryPush, nil)
			},
		},
		"delete": {
			usage: "delete <id...>          remove cards from the library",
			run: func(ctx context.Context, s *Session, args []string) error {
				switch len(args) {
				case 0:
					return cards.ErrCardIDRequired
				case 1:
					return s.commit(ctx, cards.MutationLibraryDelete, args[0])
				default:
					return s.commit(ctx, cards.MutationLibraryDelete, args)
				}
			},
		},
		"select": {
			usage: "select <id>             open a library card for editing",
			run: func(ctx context.Context, s *Session, args []string) error {
				if len(args) != 1 {
					return cards.ErrCardIDRequired
				}
				return s.commit(ctx, cards.MutationCardSelect, args[0])
			},
		},
		"reset": {
			usage: "reset                   clear the card being edited",
			run: func(ctx context.Context, s *Session, _ []string) error {
				return s.commit(ctx, cards.MutationCardReset, nil)
			},
		},
		"pref": {
			usage: "pref <key> <value>      set a preference (theme, locale)",
			run: func(ctx context.Context, s *Session, args []string) error {
				if len(args) < 2 {
					return fmt.Errorf("pref needs a key and a value")
				}
				return s.commit(ctx, cards.MutationPreferenceSet, map[string]string{args[0]: strings.Join(args[1:], " ")})
			},
		},
		"undo": {
			usage: "undo                    step back one history entry",
			run: func(ctx context.Context, s *Session, _ []string) error {
				if !s.rt.Undo(ctx) {
					fmt.Fprintln(s.out, "nothing to undo")
					return nil
				}
				return s.printCursor()
			},
		},
		"redo": {
			usage: "redo                    step forward one history entry",
			run: func(ctx context.Context, s *Session, _ []string) error {
				if !s.rt.Redo(ctx) {
					fmt.Fprintln(s.out, "nothing to redo")
					return nil
				}
				return s.printCursor()
			},
		},
		"history": {
			usage: "history                 list history entries",
			run: func(_ context.Context, s *Session, _ []string) error {
				return s.printHistory()
			},
		},
		"show": {
			usage: "show                    print the workspace state as JSON",
			run: func(_ context.Context, s *Session, _ []string) error {
				return writeJSON(s.out, s.rt.Store.State())
			},
		},
		"list": {
			usage: "list                    list library card IDs",
			run: func(_ context.Context, s *Session, _ []string) error {
				data := s.rt.Store.State().CardLibrary.Data
				if len(data) == 0 {
					fmt.Fprintln(s.out, "library is empty")
					return nil
				}
				for _, id := range data.IDs() {
					fmt.Fprintf(s.out, "%s\t%s\n", id, data[id].Name)
				}
				return nil
			},
		},
		"help": {
			usage: "help                    show this list",
			run: func(_ context.Context, s *Session, _ []string) error {
				s.printHelp()
				return nil
			},
		},
	}
}

func (s *Session) commit(ctx context.Context, mutation string, payload any) error {
	if err := s.rt.Store.Commit(ctx, mutation, payload); err != nil {
		return err
	}
	return s.printCursor()
}

func (s *Session) printCursor() error {
	entry, ok := s.rt.History.Current()
	if !ok {
		return nil
	}
	label := entry.Label
	if label == "" {
		label = "(initial)"
	}
	_, err := fmt.Fprintf(s.out, "[%d/%d] %s\n", s.rt.History.Cursor()+1, s.rt.History.Len(), label)
	return err
}

func (s *Session) printHistory() error {
	for _, entry := range s.rt.History.Timeline().Entries {
		marker := " "
		if entry.Current {
			marker = "*"
		}
		label := entry.Label
		if label == "" {
			label = "(initial)"
		}
		if _, err := fmt.Fprintf(s.out, "%s %2d %s\n", marker, entry.Index, label); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) printHelp() {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(s.out, "  "+s.commands[name].usage)
	}
	fmt.Fprintln(s.out, "  quit                    leave the session")
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
