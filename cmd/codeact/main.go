package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/codeact/internal/agent"
	"github.com/GriffinCanCode/codeact/internal/app"
	"github.com/GriffinCanCode/codeact/internal/config"
	"github.com/GriffinCanCode/codeact/internal/logging"
)

const usage = `usage: codeact <command> [flags]

commands:
  run     execute one script and print its result
  serve   run the HTTP API
  agent   run an agent session for a task
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "run":
		err = runCmd(ctx, os.Args[2:], os.Stdin, os.Stdout)
	case "serve":
		err = serveCmd(ctx, os.Args[2:])
	case "agent":
		err = agentCmd(ctx, os.Args[2:], os.Stdout, os.Stderr)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	var exit exitError
	switch {
	case err == nil:
	case errors.As(err, &exit):
		os.Exit(int(exit))
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "codeact: %v\n", err)
		os.Exit(1)
	}
}

// exitError ends the process with a status and no message
type exitError int

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

func setup(dev bool) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development || dev,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if dev {
		cfg.Logging.Development = true
	}
	return app.New(cfg, logger)
}

func runCmd(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	timeout := fs.Duration("timeout", 0, "script timeout (default from CODEACT_TIMEOUT)")
	file := fs.String("file", "", "read the script from this file")
	inline := fs.String("e", "", "script text")
	dev := fs.Bool("dev", false, "development logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	script, err := readScript(*file, *inline, stdin)
	if err != nil {
		return err
	}

	a, err := setup(*dev)
	if err != nil {
		return err
	}
	defer a.Logger.Sync()

	res := a.Execute(ctx, script, *timeout)
	out, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Fprintln(stdout, string(out))
	if !res.Success {
		return exitError(1)
	}
	return nil
}

func readScript(file, inline string, stdin io.Reader) (string, error) {
	switch {
	case file != "" && inline != "":
		return "", errors.New("use either -file or -e, not both")
	case inline != "":
		return inline, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
}

func serveCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	host := fs.String("host", "", "listen host (default from HOST)")
	port := fs.String("port", "", "listen port (default from PORT)")
	dev := fs.Bool("dev", false, "development logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := setup(*dev)
	if err != nil {
		return err
	}
	if *host != "" {
		a.Config.Server.Host = *host
	}
	if *port != "" {
		a.Config.Server.Port = *port
	}

	srv := a.Server()
	if err := srv.Run(ctx); err != nil {
		a.Logger.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}

func agentCmd(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	task := fs.String("task", "", "task for the agent")
	maxIterations := fs.Int("max-iterations", agent.DefaultSessionConfig().MaxIterations, "model turn budget")
	dev := fs.Bool("dev", false, "development logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*task) == "" {
		return errors.New("agent requires -task")
	}

	a, err := setup(*dev)
	if err != nil {
		return err
	}
	defer a.Logger.Sync()

	session, err := a.NewSession(*maxIterations, agent.WithObserver(func(step agent.Step) {
		if step.Result == nil {
			return
		}
		fmt.Fprintf(stderr, "--- step %d ---\n%s\n%s", step.Iteration, step.Script, agent.FormatResult(step.Result))
	}))
	if err != nil {
		return err
	}

	answer, err := session.Run(ctx, *task)
	if answer != "" {
		fmt.Fprintln(stdout, answer)
	}
	if errors.Is(err, agent.ErrIterationsExhausted) {
		fmt.Fprintln(stderr, "codeact: iteration budget exhausted")
		return exitError(1)
	}
	return err
}
