// Copyright 2020-2024 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package text writes indented line-oriented text.
package text

import "io"

// Printer prints lines.
type Printer interface {
	// P writes the arguments and a newline with the current indent.
	//
	// Spaces are stripped from the end of the line, and only a newline is
	// printed if the args result in only spaces or no value.
	P(args ...any)
	// Pf is P with a format string.
	Pf(format string, args ...any)
	// In indents.
	In()
	// Out unindents.
	Out()
	// Err returns the first error writing to the underlying writer.
	Err() error
}

// NewPrinter returns a new Printer.
func NewPrinter(writer io.Writer, options ...PrinterOption) Printer {
	return newPrinter(writer, options...)
}

// PrinterOption is an option for a new Printer.
type PrinterOption func(*printer)

// PrinterWithIndent returns a new PrinterOption that uses the given indent.
//
// The default is two spaces.
func PrinterWithIndent(indent string) PrinterOption {
	return func(printer *printer) {
		printer.indent = indent
	}
}
