package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"entity-manager/internal/config"
	"entity-manager/internal/entity"
	"entity-manager/internal/repository"
	"entity-manager/internal/request"
	"entity-manager/internal/schema"
)

func newFlagSet(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)

	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}

	return nil
}

func runTransform(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "transform")
	schemaPath := fs.String("schema", "", "schema YAML file")
	reverse := fs.Bool("reverse", false, "apply the response side")
	in := fs.String("in", "-", "input JSON file, - for stdin")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	s, err := loadSchema(*schemaPath)
	if err != nil {
		return err
	}

	src := e.stdin
	if *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()

		src = f
	}

	data, err := readJSON(src)
	if err != nil {
		return err
	}

	d := schema.Forward
	if *reverse {
		d = schema.Reverse
	}

	return printJSON(e.stdout, schema.NewMapper(s).Map(d, data))
}

func runCheck(_ context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "check")
	schemaPath := fs.String("schema", "", "schema YAML file")
	configPath := fs.String("config", "", "configuration YAML file")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	switch {
	case *configPath != "":
		cfg, err := config.LoadFile(*configPath)
		if err != nil {
			return err
		}

		res := cfg.Validate()
		printDiagnostics(e.stdout, res)

		return res.Error()
	case *schemaPath != "":
		s, err := schema.LoadFile(*schemaPath)
		if err != nil {
			return err
		}

		res := schema.Validate(s, *schemaPath)
		printDiagnostics(e.stdout, res)

		return res.Error()
	default:
		return fmt.Errorf("%w: check needs -schema or -config", errUsage)
	}
}

// remoteFlags are shared by the commands that call the API.
type remoteFlags struct {
	config   string
	entity   string
	endpoint string
	verbose  bool
}

func (f *remoteFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "configuration YAML file")
	fs.StringVar(&f.entity, "entity", "", "entity name, as used in URLs")
	fs.StringVar(&f.endpoint, "endpoint", "", "override the configured endpoint")
	fs.BoolVar(&f.verbose, "v", false, "log requests")
}

func (f *remoteFlags) open(e *env) (repository.Repository, request.Options, error) {
	if f.entity == "" {
		return nil, request.Options{}, fmt.Errorf("%w: -entity is required", errUsage)
	}

	cfg, err := loadConfig(f.config)
	if err != nil {
		return nil, request.Options{}, err
	}

	if f.endpoint != "" {
		cfg.Endpoint = f.endpoint
	}

	e.logger = newLogger(e.stderr, f.verbose)

	m := cfg.Manager(e.logger)

	repo, err := cfg.Repository(m, f.entity)
	if err != nil {
		return nil, request.Options{}, err
	}

	return repo, cfg.RequestOptions(f.entity), nil
}

func runFind(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "find")

	var rf remoteFlags
	rf.register(fs)
	id := fs.String("id", "", "entity identifier")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *id == "" {
		return fmt.Errorf("%w: -id is required", errUsage)
	}

	repo, opts, err := rf.open(e)
	if err != nil {
		return err
	}

	found, err := repo.Find(ctx, *id, opts)
	if err != nil {
		return err
	}

	return printJSON(e.stdout, found.Fields())
}

func runList(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "list")

	var rf remoteFlags
	rf.register(fs)
	criteria := fs.String("criteria", "", "criteria as a JSON object")
	one := fs.Bool("one", false, "return the first match only")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var c map[string]any
	if *criteria != "" {
		if err := json.Unmarshal([]byte(*criteria), &c); err != nil {
			return fmt.Errorf("%w: -criteria: %v", errUsage, err)
		}
	}

	repo, opts, err := rf.open(e)
	if err != nil {
		return err
	}

	if *one {
		found, err := repo.FindOneBy(ctx, c, opts)
		if err != nil {
			return err
		}

		return printJSON(e.stdout, found.Fields())
	}

	list, err := repo.FindBy(ctx, c, opts)
	if err != nil {
		return err
	}

	return printJSON(e.stdout, entityFields(list))
}

func runSave(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "save")

	var rf remoteFlags
	rf.register(fs)
	data := fs.String("data", "-", "entity JSON object, - for stdin")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var (
		v   any
		err error
	)

	if *data == "-" {
		v, err = readJSON(e.stdin)
	} else {
		v, err = readJSON(strings.NewReader(*data))
	}

	if err != nil {
		return err
	}

	fields, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: entity data must be a JSON object", errUsage)
	}

	repo, opts, err := rf.open(e)
	if err != nil {
		return err
	}

	res, err := repo.Save(ctx, repo.Create(fields), opts)
	if err != nil {
		return err
	}

	return printJSON(e.stdout, res)
}

func runRemove(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "remove")

	var rf remoteFlags
	rf.register(fs)
	ids := fs.String("id", "", "comma separated identifiers")

	if err := parseFlags(fs, args); err != nil {
		return err
	}

	list := splitIDs(*ids)
	if len(list) == 0 {
		return fmt.Errorf("%w: -id is required", errUsage)
	}

	repo, opts, err := rf.open(e)
	if err != nil {
		return err
	}

	entities := make([]entity.Entity, len(list))
	for i, id := range list {
		entities[i] = repo.Create(entity.Fields{entity.IDField: id})
	}

	res := repo.Remove(ctx, entities, opts)
	if err := printJSON(e.stdout, map[string]any{
		"removed": len(res.Succeeded),
		"failed":  len(res.Failed),
	}); err != nil {
		return err
	}

	return bulkError("remove", res)
}
