package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"roi-slab-agent/internal/agent"
	"roi-slab-agent/internal/bootstrap"
	"roi-slab-agent/internal/config"
	"roi-slab-agent/internal/domain"
	"roi-slab-agent/internal/session"
)

const (
	ExitSuccess     = 0
	ExitConfigError = 1
	ExitRuntimeErr  = 2
)

// ChatHost is the session lifecycle the terminal drives.
type ChatHost interface {
	Start(ctx context.Context) (session.Started, error)
	Message(ctx context.Context, id, text string) (agent.Reply, error)
	History(id string) ([]domain.Message, error)
	Reset(id string) error
	SystemPrompt(id string) (string, error)
	SetSystemPrompt(id, text string) error
	End(ctx context.Context, id string) error
}

// Deps holds injectable dependencies for the REPL.
type Deps struct {
	Host   ChatHost
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	IsTTY  func() bool
}

var errConfig = errors.New("configuration error")

func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func runWithDeps(ctx context.Context, deps *Deps) error {
	started, err := deps.Host.Start(ctx)
	if err != nil {
		var sessErr *session.Error
		if errors.As(err, &sessErr) && sessErr.Code == session.ErrorConfiguration {
			fmt.Fprintln(deps.Stderr, sessErr.Message)
			return fmt.Errorf("%w: %v", errConfig, err)
		}
		return err
	}
	fmt.Fprintln(deps.Stdout, started.Welcome)
	fmt.Fprintln(deps.Stdout)

	tty := deps.IsTTY()
	reader := bufio.NewReader(deps.Stdin)
	for {
		if tty {
			fmt.Fprint(deps.Stdout, "> ")
		}
		line, readErr := reader.ReadString('\n')
		input := strings.TrimSpace(line)

		if input != "" {
			if IsCommand(input) {
				exit, err := handleCommand(input, started.ID, deps)
				if err != nil {
					fmt.Fprintln(deps.Stderr, err)
				}
				if exit {
					return deps.Host.End(ctx, started.ID)
				}
			} else {
				reply, err := deps.Host.Message(ctx, started.ID, input)
				if err != nil {
					var sessErr *session.Error
					if errors.As(err, &sessErr) {
						fmt.Fprintln(deps.Stderr, sessErr.Message)
					} else {
						return err
					}
				} else {
					fmt.Fprintln(deps.Stdout, reply.Text)
					fmt.Fprintln(deps.Stdout)
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return deps.Host.End(ctx, started.ID)
			}
			return fmt.Errorf("failed to read input: %w", readErr)
		}
	}
}

// IsCommand returns true if input starts with a slash.
func IsCommand(input string) bool {
	return strings.HasPrefix(input, "/")
}

func handleCommand(input, id string, deps *Deps) (exit bool, err error) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(strings.TrimSpace(input), "/"), " ")
	cmd := strings.ToLower(name)
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "bye", "quit", "exit":
		fmt.Fprintln(deps.Stdout, "Goodbye")
		return true, nil
	case "reset":
		if err := deps.Host.Reset(id); err != nil {
			return false, err
		}
		fmt.Fprintln(deps.Stdout, "Conversation cleared.")
		return false, nil
	case "history":
		history, err := deps.Host.History(id)
		if err != nil {
			return false, err
		}
		if len(history) == 0 {
			fmt.Fprintln(deps.Stdout, "(no messages yet)")
			return false, nil
		}
		for _, m := range history {
			fmt.Fprintf(deps.Stdout, "%s: %s\n", m.Role(), m.Content())
		}
		return false, nil
	case "prompt":
		if arg == "" {
			current, err := deps.Host.SystemPrompt(id)
			if err != nil {
				return false, err
			}
			fmt.Fprintln(deps.Stdout, current)
			return false, nil
		}
		if err := deps.Host.SetSystemPrompt(id, arg); err != nil {
			return false, err
		}
		fmt.Fprintln(deps.Stdout, "Instruction replaced for later requests.")
		return false, nil
	case "help":
		fmt.Fprintln(deps.Stdout, `Commands:
  /reset    Clear the conversation
  /history  Show the conversation so far
  /prompt   Show the instruction; /prompt <text> replaces it
  /bye      Exit
  /quit     Exit
  /exit     Exit
  /help     Show this help`)
		return false, nil
	default:
		return false, fmt.Errorf("Unknown command: /%s. Type /help for available commands.", cmd)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}

	var logOut io.Writer = io.Discard
	if cfg.Debug() {
		logOut = os.Stderr
	}
	logger := bootstrap.NewLogger(logOut, cfg.Debug())
	slog.SetDefault(logger)

	host, err := bootstrap.NewHost(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}

	return runWithDeps(ctx, &Deps{
		Host:   host,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		IsTTY:  isTTY,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, errConfig) {
			os.Exit(ExitConfigError)
		}
		os.Exit(ExitRuntimeErr)
	}
	os.Exit(ExitSuccess)
}
