package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

type RecordResult struct {
	RecordType string
	Value      string
}

type ZoneRecord struct {
	Owner string
	TTL   uint32
	Class string
	Type  string
	Value string
}

type Formatter struct {
	out     io.Writer
	record  *color.Color
	info    *color.Color
	success *color.Color
	warning *color.Color
	failure *color.Color
	kind    *color.Color
	heading *color.Color
}

func NewFormatter(out io.Writer, noColor bool) *Formatter {
	formatter := &Formatter{
		out:     out,
		record:  color.New(color.FgGreen),
		info:    color.New(color.FgYellow),
		success: color.New(color.FgGreen),
		warning: color.New(color.FgHiYellow),
		failure: color.New(color.FgHiRed),
		kind:    color.New(color.FgCyan),
		heading: color.New(color.FgHiBlue),
	}
	if noColor {
		for _, c := range []*color.Color{
			formatter.record, formatter.info, formatter.success, formatter.warning,
			formatter.failure, formatter.kind, formatter.heading,
		} {
			c.DisableColor()
		}
	}
	return formatter
}

func (formatter *Formatter) line(c *color.Color, format string, args ...interface{}) {
	fmt.Fprintln(formatter.out, c.Sprintf(format, args...))
}

func (formatter *Formatter) Infof(format string, args ...interface{}) {
	formatter.line(formatter.info, format, args...)
}

func (formatter *Formatter) Successf(format string, args ...interface{}) {
	formatter.line(formatter.success, format, args...)
}

func (formatter *Formatter) Warnf(format string, args ...interface{}) {
	formatter.line(formatter.warning, format, args...)
}

func (formatter *Formatter) Errorf(format string, args ...interface{}) {
	formatter.line(formatter.failure, format, args...)
}

func (formatter *Formatter) Typef(format string, args ...interface{}) {
	formatter.line(formatter.kind, format, args...)
}

func (formatter *Formatter) Headingf(format string, args ...interface{}) {
	formatter.line(formatter.heading, format, args...)
}

func (formatter *Formatter) Printf(format string, args ...interface{}) {
	fmt.Fprintf(formatter.out, format, args...)
}

// Table prints results as a two-column table, even when there are none.
func (formatter *Formatter) Table(results []RecordResult) {
	fmt.Fprintf(formatter.out, "\n%-*s | Value\n", recordTypeColumn, "Record")
	fmt.Fprintln(formatter.out, strings.Repeat("-", tableRuleWidth))
	for _, result := range results {
		fmt.Fprintf(formatter.out, "%s | %s\n", formatter.record.Sprintf("%-*s", recordTypeColumn, result.RecordType), result.Value)
	}
}

// Zone prints AXFR rows and returns how many were printed.
func (formatter *Formatter) Zone(records []ZoneRecord) int {
	fmt.Fprintf(formatter.out, "%-30s %-8s %-6s %-8s Value\n", "Name", "TTL", "Class", "Type")
	fmt.Fprintln(formatter.out, strings.Repeat("-", zoneRuleWidth))
	rows := 0
	for _, record := range records {
		rows++
		fmt.Fprintf(formatter.out, "%s %-8d %-6s %s %s\n",
			formatter.success.Sprintf("%-30s", record.Owner),
			record.TTL,
			record.Class,
			formatter.kind.Sprintf("%-8s", record.Type),
			record.Value)
	}
	return rows
}
