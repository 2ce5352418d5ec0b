// Command bufplus encodes, decodes and inspects data with schema definition
// files.
//
// Usage:
//
//	bufplus encode --schema FILE --name NAME [--hex] [INPUT]
//	bufplus decode --schema FILE --name NAME [--hex] [--all] [INPUT]
//	bufplus inspect --schema FILE [--name NAME --sample FILE]
//	bufplus validate FILE...
//	bufplus varint [--] VALUE...
//
// Global flags:
//
//	--config.file        YAML config file
//	--config.expand-env  expand ${VAR} references in the config file
//	--log.level          debug, info, warn or error (default "info")
//	--encoding           text encoding for string fields (default "utf8")
//
// Definition files hold a "schemas" mapping from schema name to definition,
// in YAML or JSON. Schemas may reference each other in any order.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/blockberries/bufferplus/pkg/bufferplus"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr}
	app := kingpin.New("bufplus", "Encode, decode and inspect schema-described binary data.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.Terminate(nil)
	app.HelpFlag.Short('h')

	e.configFile = app.Flag("config.file", "YAML config file.").String()
	e.expandEnv = app.Flag("config.expand-env", "Expand ${VAR} references in the config file.").Bool()
	e.logLevel = app.Flag("log.level", "Log level: debug, info, warn or error.").String()
	e.encoding = app.Flag("encoding", "Text encoding for string fields.").String()

	addEncodeCommand(app, e)
	addDecodeCommand(app, e)
	addInspectCommand(app, e)
	addValidateCommand(app, e)
	addVarintCommand(app, e)

	if _, err := app.Parse(args); err != nil {
		fmt.Fprintf(stderr, "bufplus: %v\n", err)
		return 1
	}
	return 0
}

// env carries the streams and global settings shared by every command.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFile *string
	expandEnv  *bool
	logLevel   *string
	encoding   *string

	cfg    config
	logger log.Logger
}

// setup loads the config file and builds the logger. Commands call it before
// doing any work.
func (e *env) setup() error {
	if *e.configFile != "" {
		cfg, err := loadConfig(*e.configFile, *e.expandEnv)
		if err != nil {
			return err
		}
		e.cfg = cfg
	}
	if *e.logLevel != "" {
		e.cfg.LogLevel = *e.logLevel
	}
	if *e.encoding != "" {
		e.cfg.Encoding = *e.encoding
	}
	if e.cfg.Encoding != "" && !bufferplus.IsEncoding(e.cfg.Encoding) {
		return fmt.Errorf("unknown encoding %q", e.cfg.Encoding)
	}

	filter, err := levelFilter(e.cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(e.stderr))
	logger = level.NewFilter(logger, filter)
	e.logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	return nil
}

func levelFilter(name string) (level.Option, error) {
	switch strings.ToLower(name) {
	case "debug":
		return level.AllowDebug(), nil
	case "", "info":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	default:
		return nil, fmt.Errorf("unknown log level %q", name)
	}
}

// registry loads the definition files into a new registry and builds every
// schema. Without files on the command line the config file list is used.
func (e *env) registry(files []string) (*bufferplus.Registry, error) {
	if len(files) == 0 {
		files = e.cfg.Schemas
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no schema definition files given")
	}
	reg := bufferplus.NewRegistryWithOptions(bufferplus.RegistryOptions{Logger: e.logger})
	for _, f := range files {
		defs, err := bufferplus.LoadDefinitionFile(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		if _, err := reg.RegisterDefinitions(defs); err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		level.Debug(e.logger).Log("msg", "loaded definitions", "file", f, "schemas", len(defs))
	}
	if e.cfg.Encoding != "" {
		for _, s := range reg.Schemas() {
			if err := s.SetEncoding(e.cfg.Encoding); err != nil {
				return nil, err
			}
		}
	}
	return reg, nil
}

// schema loads the definition files and returns the named schema.
func (e *env) schema(files []string, name string) (*bufferplus.Schema, error) {
	reg, err := e.registry(files)
	if err != nil {
		return nil, err
	}
	s, ok := reg.Schema(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", bufferplus.ErrUnknownSchema, name)
	}
	return s, nil
}

// readInput reads the named file, or standard input for "" and "-".
func (e *env) readInput(name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(e.stdin)
	}
	return os.ReadFile(name)
}

// hex reports whether encoded data is exchanged as hex text.
func (e *env) hex(flag bool) bool {
	return flag || e.cfg.Hex
}
