// Package main provides the entity-manager CLI.
//
// entity-manager drives the persistence layer from the shell:
//   - transform runs a schema mapper over a JSON document
//   - check validates a schema or a configuration file
//   - find, list, save and remove call the configured API
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goccy/go-json"

	"entity-manager/internal/config"
	"entity-manager/internal/diagnostic"
	"entity-manager/internal/entity"
	"entity-manager/internal/repository"
	"entity-manager/internal/schema"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitInvalid = 2
)

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}

type command func(ctx context.Context, env *env, args []string) error

var commands = map[string]command{
	"transform": runTransform,
	"check":     runCheck,
	"find":      runFind,
	"list":      runList,
	"save":      runSave,
	"remove":    runRemove,
}

type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitInvalid
	}

	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(stderr)
		return exitInvalid
	}

	e := &env{stdin: stdin, stdout: stdout, stderr: stderr}

	err := cmd(ctx, e, args[1:])
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, err)
		return exitInvalid
	default:
		fmt.Fprintln(stderr, "error:", err)
		return exitFailed
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "entity-manager - schema driven client for REST entity APIs")
	fmt.Fprintln(w, "Commands: transform | check | find | list | save | remove")
	fmt.Fprintln(w, "Run a command with -help for its flags")
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(b))

	return err
}

func readJSON(r io.Reader) (any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to parse input JSON: %w", err)
	}

	return v, nil
}

func printDiagnostics(w io.Writer, res *diagnostic.Diagnostics) {
	for _, d := range res.All() {
		fmt.Fprintf(w, "%s: %s\n", d.Severity, d)
	}
}

// entityFields renders entities as plain objects for output.
func entityFields(list []entity.Entity) []entity.Fields {
	out := make([]entity.Fields, len(list))
	for i, e := range list {
		out[i] = e.Fields()
	}

	return out
}

func splitIDs(s string) []string {
	var ids []string

	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	return ids
}

func bulkError(op string, res repository.BulkResult) error {
	if len(res.Failed) == 0 {
		return nil
	}

	return fmt.Errorf("%s: %d of %d failed", op, len(res.Failed), res.Len())
}

func loadSchema(p string) (*schema.Schema, error) {
	if p == "" {
		return nil, fmt.Errorf("%w: -schema is required", errUsage)
	}

	return schema.LoadFile(p)
}

func loadConfig(p string) (*config.Config, error) {
	if p == "" {
		return nil, fmt.Errorf("%w: -config is required", errUsage)
	}

	return config.LoadFile(p)
}
