package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"github.com/dkeye/Breakout/internal/client"
	"github.com/dkeye/Breakout/internal/domain"
	"github.com/dkeye/Breakout/internal/session"
)

var errQuit = errors.New("quit")

const shellHelp = `commands:
  rooms                  list active rooms
  join <room> [main]     join a main room, or a breakout of <main>
  switch <room>          leave and join a breakout of the home room
  back                   return to the home main room
  leave                  leave the current room
  status                 show the session state
  quit`

type roomLister interface {
	ListActiveRooms(ctx context.Context) ([]domain.LiveRoomView, error)
}

// printSurface reports remote track changes on the terminal.
type printSurface struct {
	out io.Writer
}

func (s printSurface) Attach(p domain.Identity, t session.TrackID) {
	fmt.Fprintf(s.out, "+ %s %s\n", p, t)
}

func (s printSurface) Detach(p domain.Identity, t session.TrackID) {
	fmt.Fprintf(s.out, "- %s %s\n", p, t)
}

type shell struct {
	rooms   roomLister
	machine *session.Machine
	out     io.Writer
}

func newShellCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session: join, switch between and leave rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := env.api()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			sh := &shell{
				rooms:   api,
				machine: session.NewMachine(client.NewConnector(api), printSurface{out: out}),
				out:     out,
			}
			return sh.run(cmd.Context(), cmd.InOrStdin(), env)
		},
	}
}

func (s *shell) run(ctx context.Context, in io.Reader, env *cliEnv) error {
	defer func() { _ = s.machine.Leave(context.WithoutCancel(ctx)) }()

	fmt.Fprintln(s.out, "type 'help' for commands")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "roomctl> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lineCtx, cancel := context.WithTimeout(ctx, env.timeout())
		err := s.exec(lineCtx, line)
		cancel()
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *shell) exec(ctx context.Context, line string) error {
	args, err := shellwords.Parse(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "help":
		fmt.Fprintln(s.out, shellHelp)
	case "quit", "exit":
		return errQuit
	case "rooms":
		views, err := s.rooms.ListActiveRooms(ctx)
		if err != nil {
			return err
		}
		printViews(s.out, views)
	case "join":
		if len(rest) == 0 || len(rest) > 2 {
			return errors.New("usage: join <room> [main]")
		}
		t := session.Target{RoomID: domain.RoomID(rest[0])}
		if len(rest) == 2 {
			t.MainRoomID = domain.RoomID(rest[1])
		}
		if err := s.machine.Join(ctx, t); err != nil {
			return err
		}
		s.printStatus()
	case "switch":
		if len(rest) != 1 {
			return errors.New("usage: switch <room>")
		}
		if err := s.machine.SwitchRoom(ctx, domain.RoomID(rest[0]), false); err != nil {
			return err
		}
		s.printStatus()
	case "back":
		if err := s.machine.SwitchRoom(ctx, "", true); err != nil {
			return err
		}
		s.printStatus()
	case "leave":
		if err := s.machine.Leave(ctx); err != nil {
			return err
		}
		s.printStatus()
	case "status":
		s.printStatus()
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
	return nil
}

func (s *shell) printStatus() {
	st := s.machine.Status()
	if st.State == session.Disconnected {
		fmt.Fprintf(s.out, "disconnected (home %s)\n", orDash(st.Home))
		return
	}
	fmt.Fprintf(s.out, "connected to %s (home %s)\n", st.Room, st.Home)
}

func orDash(id domain.RoomID) string {
	if id == "" {
		return "-"
	}
	return string(id)
}
