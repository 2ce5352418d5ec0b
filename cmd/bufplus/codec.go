package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log/level"
	jsoniter "github.com/json-iterator/go"

	"github.com/blockberries/bufferplus/pkg/bufferplus"
)

// jsonAPI keeps numbers as json.Number so 64-bit integers survive decoding.
var jsonAPI = jsoniter.Config{
	UseNumber:   true,
	SortMapKeys: true,
}.Froze()

// encodeCommand encodes a JSON value with a schema.
type encodeCommand struct {
	env     *env
	schemas *[]string
	name    *string
	hex     *bool
	input   *string
}

func addEncodeCommand(app *kingpin.Application, e *env) {
	cmd := &encodeCommand{env: e}
	c := app.Command("encode", "Encode a JSON value with a schema.").Action(cmd.run)
	cmd.schemas = c.Flag("schema", "Schema definition file (repeatable).").Short('s').Strings()
	cmd.name = c.Flag("name", "Schema name.").Short('n').Required().String()
	cmd.hex = c.Flag("hex", "Write hex text instead of raw bytes.").Bool()
	cmd.input = c.Arg("input", "JSON input file; standard input when omitted.").String()
}

func (cmd *encodeCommand) run(_ *kingpin.ParseContext) error {
	e := cmd.env
	if err := e.setup(); err != nil {
		return err
	}
	s, err := e.schema(*cmd.schemas, *cmd.name)
	if err != nil {
		return err
	}
	in, err := e.readInput(*cmd.input)
	if err != nil {
		return err
	}
	var v any
	if err := jsonAPI.Unmarshal(in, &v); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	data, err := s.Marshal(v)
	if err != nil {
		return err
	}
	level.Debug(e.logger).Log("msg", "encoded value", "schema", s.Name(), "bytes", len(data))

	if e.hex(*cmd.hex) {
		_, err = fmt.Fprintln(e.stdout, hex.EncodeToString(data))
		return err
	}
	_, err = e.stdout.Write(data)
	return err
}

// decodeCommand decodes bytes with a schema and prints JSON.
type decodeCommand struct {
	env     *env
	schemas *[]string
	name    *string
	hex     *bool
	all     *bool
	input   *string
}

func addDecodeCommand(app *kingpin.Application, e *env) {
	cmd := &decodeCommand{env: e}
	c := app.Command("decode", "Decode bytes with a schema and print JSON.").Action(cmd.run)
	cmd.schemas = c.Flag("schema", "Schema definition file (repeatable).").Short('s').Strings()
	cmd.name = c.Flag("name", "Schema name.").Short('n').Required().String()
	cmd.hex = c.Flag("hex", "Read hex text instead of raw bytes.").Bool()
	cmd.all = c.Flag("all", "Decode consecutive values until the input is exhausted.").Bool()
	cmd.input = c.Arg("input", "Input file; standard input when omitted.").String()
}

func (cmd *decodeCommand) run(_ *kingpin.ParseContext) error {
	e := cmd.env
	if err := e.setup(); err != nil {
		return err
	}
	s, err := e.schema(*cmd.schemas, *cmd.name)
	if err != nil {
		return err
	}
	data, err := e.readInput(*cmd.input)
	if err != nil {
		return err
	}
	if e.hex(*cmd.hex) {
		data, err = hex.DecodeString(strings.Join(strings.Fields(string(data)), ""))
		if err != nil {
			return fmt.Errorf("parse hex input: %w", err)
		}
	}

	b := bufferplus.Wrap(data)
	for {
		v, err := s.Decode(b)
		if err != nil {
			return err
		}
		out, err := jsonAPI.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(e.stdout, string(out)); err != nil {
			return err
		}
		if !*cmd.all || b.Remaining() == 0 {
			break
		}
	}
	if b.Remaining() > 0 {
		level.Warn(e.logger).Log("msg", "trailing bytes after value", "schema", s.Name(), "bytes", b.Remaining())
	}
	return nil
}
