package main

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/kingpin/v2"

	"github.com/blockberries/bufferplus/pkg/bufferplus"
)

// varintCommand prints the varint and zig-zag encodings of integers.
type varintCommand struct {
	env    *env
	values *[]string
}

func addVarintCommand(app *kingpin.Application, e *env) {
	cmd := &varintCommand{env: e}
	c := app.Command("varint", "Show the varint encodings of integers. Use -- before negative values.").Action(cmd.run)
	cmd.values = c.Arg("value", "Integers to encode.").Required().Strings()
}

func (cmd *varintCommand) run(_ *kingpin.ParseContext) error {
	e := cmd.env
	if err := e.setup(); err != nil {
		return err
	}
	for _, s := range *cmd.values {
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return fmt.Errorf("parse %q: %w", s, err)
		}
		fmt.Fprintf(e.stdout, "%d\tvaruint: %s\tvarint: %s\n", v, varuintText(v), varintText(v))
	}
	return nil
}

func varuintText(v int64) string {
	if v < 0 {
		return "-"
	}
	b := bufferplus.New()
	if err := b.WriteVarUint(uint64(v)); err != nil {
		return err.Error()
	}
	return byteText(b.Bytes())
}

func varintText(v int64) string {
	b := bufferplus.New()
	if err := b.WriteVarInt(v); err != nil {
		return err.Error()
	}
	return byteText(b.Bytes())
}

func byteText(p []byte) string {
	unit := "bytes"
	if len(p) == 1 {
		unit = "byte"
	}
	return fmt.Sprintf("% x (%d %s)", p, len(p), unit)
}
