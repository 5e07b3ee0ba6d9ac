package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/dixieflatline76/imgedit/asset"
	"github.com/dixieflatline76/imgedit/config"
	"github.com/dixieflatline76/imgedit/pkg/clipboard"
	"github.com/dixieflatline76/imgedit/pkg/command"
	"github.com/dixieflatline76/imgedit/pkg/editor"
	"github.com/dixieflatline76/imgedit/util/log"
)

const prompt = "imgedit> "

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to the configuration file")
	script := fs.String("c", "", "run the ';' separated commands and exit")
	verbose := fs.Bool("v", false, "log to stderr")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [-config FILE] [-c \"cmd; cmd\"] [-v] [IMAGE]\n", config.AppName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return 2
	}

	log.SetConsole(stderr, *verbose)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %v\n", err)
		return 1
	}
	opts, err := editor.OptionsFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error in configuration: %v\n", err)
		return 1
	}

	session := editor.NewSession(opts)
	registry := command.Default(&clipboard.System{}, asset.NewManager())
	log.Printf("%s %s started", config.AppName, config.AppVersion)

	if fs.NArg() == 1 {
		if err := session.Open(fs.Arg(0)); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if *script != "" {
		msgs, err := registry.RunScript(ctx, session, *script)
		for _, m := range msgs {
			fmt.Fprintln(stdout, m)
		}
		if err != nil && !errors.Is(err, command.ErrQuit) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	return repl(ctx, registry, session, stdin, stdout, stderr)
}

// loadConfig reads path when given, otherwise the per-user configuration.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.GetConfig(), nil
}

// repl runs one command per input line until quit, end of input or
// cancellation. Failed commands are reported and the loop goes on.
func repl(ctx context.Context, r *command.Registry, s *editor.Session, stdin io.Reader, stdout, stderr io.Writer) int {
	scanner := bufio.NewScanner(stdin)
	fmt.Fprint(stdout, prompt)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		msg, err := r.Run(ctx, s, scanner.Text())
		switch {
		case errors.Is(err, command.ErrQuit):
			return 0
		case err != nil:
			fmt.Fprintf(stderr, "Error: %v\n", err)
		case msg != "":
			fmt.Fprintln(stdout, msg)
		}
		fmt.Fprint(stdout, prompt)
	}
	fmt.Fprintln(stdout)
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(stderr, "Error reading input: %v\n", err)
		return 1
	}
	return 0
}
