package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shellPrompt = "habits> "

func newShellCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run habit commands interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runShell reads one command per line until EOF or "exit". A failing
// command is reported and the session goes on.
func runShell(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	renderHabitList(out, a.habits.Habits(), a.now())
	fmt.Fprintln(out, `Type "help" for the list of commands, "exit" to leave.`)

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, shellPrompt)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
		case "exit", "quit":
			return nil
		default:
			if err := runShellLine(ctx, a, line, out); err != nil {
				a.logFailure(err)
				fmt.Fprintln(out, "Error:", describe(err))
			}
		}
		fmt.Fprint(out, shellPrompt)
	}
	return scanner.Err()
}

func runShellLine(ctx context.Context, a *app, line string, out io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("Command panicked", zap.String("line", line), zap.Any("panic", r))
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse %q: %w", line, err)
	}
	if len(args) > 0 && args[0] == "shell" {
		return fmt.Errorf("already in the shell")
	}

	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetIn(strings.NewReader(""))
	root.SetOut(out)
	root.SetErr(out)
	return root.ExecuteContext(ctx)
}
