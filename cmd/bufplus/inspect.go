package main

import (
	"errors"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-kit/log/level"

	"github.com/blockberries/bufferplus/pkg/bufferplus"
)

// inspectCommand prints the compiled layout of every schema.
type inspectCommand struct {
	env     *env
	schemas *[]string
	name    *string
	sample  *string
}

func addInspectCommand(app *kingpin.Application, e *env) {
	cmd := &inspectCommand{env: e}
	c := app.Command("inspect", "Print schemas, their fields and fingerprints.").Action(cmd.run)
	cmd.schemas = c.Flag("schema", "Schema definition file (repeatable).").Short('s').Strings()
	cmd.name = c.Flag("name", "Only show this schema.").Short('n').String()
	cmd.sample = c.Flag("sample", "JSON value to measure with the selected schema.").ExistingFile()
}

func (cmd *inspectCommand) run(_ *kingpin.ParseContext) error {
	e := cmd.env
	if err := e.setup(); err != nil {
		return err
	}
	reg, err := e.registry(*cmd.schemas)
	if err != nil {
		return err
	}

	schemas := reg.Schemas()
	if *cmd.name != "" {
		s, ok := reg.Schema(*cmd.name)
		if !ok {
			return fmt.Errorf("%w: %q", bufferplus.ErrUnknownSchema, *cmd.name)
		}
		schemas = []*bufferplus.Schema{s}
	} else if *cmd.sample != "" {
		return errors.New("--sample requires --name")
	}

	bold := color.New(color.Bold)
	for _, s := range schemas {
		fields, err := s.Fields()
		if err != nil {
			return err
		}
		fp, err := s.Fingerprint()
		if err != nil {
			return err
		}
		kind := "schema"
		if s.Implicit() {
			kind = "implicit schema"
		}
		bold.Fprintf(e.stdout, "%s %s\n", kind, s.Name())
		fmt.Fprintf(e.stdout, "\tfingerprint: %016x, fields: %d, encoding: %s\n", fp, len(fields), s.Encoding())
		for _, f := range fields {
			key := f.Key
			if key == "" {
				key = "(value)"
			}
			fmt.Fprintf(e.stdout, "\t\t%s: %s\n", key, f.Type)
		}
	}

	if *cmd.sample == "" {
		return nil
	}
	in, err := e.readInput(*cmd.sample)
	if err != nil {
		return err
	}
	var v any
	if err := jsonAPI.Unmarshal(in, &v); err != nil {
		return fmt.Errorf("parse sample: %w", err)
	}
	n, err := schemas[0].ByteLength(v)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "sample size: %s (%d bytes)\n", humanize.Bytes(uint64(n)), n)
	return nil
}

// validateCommand builds every schema of each definition file.
type validateCommand struct {
	env   *env
	files *[]string
}

func addValidateCommand(app *kingpin.Application, e *env) {
	cmd := &validateCommand{env: e}
	c := app.Command("validate", "Check schema definition files.").Action(cmd.run)
	cmd.files = c.Arg("file", "Schema definition files.").Required().Strings()
}

func (cmd *validateCommand) run(_ *kingpin.ParseContext) error {
	e := cmd.env
	if err := e.setup(); err != nil {
		return err
	}
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	failed := 0
	for _, f := range *cmd.files {
		reg, err := e.registry([]string{f})
		if err != nil {
			failed++
			red.Fprintf(e.stdout, "invalid: %v\n", err)
			level.Debug(e.logger).Log("msg", "validation failed", "file", f, "err", err)
			continue
		}
		green.Fprintf(e.stdout, "valid: %s (%d schemas)\n", f, len(reg.Schemas()))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files invalid", failed, len(*cmd.files))
	}
	return nil
}
