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

package text

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

const defaultIndent = "  "

var errNegativeIndents = errors.New("negative indents")

type printer struct {
	writer     io.Writer
	indent     string
	curIndents int
	err        error
}

func newPrinter(writer io.Writer, options ...PrinterOption) *printer {
	printer := &printer{
		writer: writer,
		indent: defaultIndent,
	}
	for _, option := range options {
		option(printer)
	}
	return printer
}

func (p *printer) P(args ...any) {
	var buffer bytes.Buffer
	for _, arg := range args {
		_, _ = fmt.Fprint(&buffer, arg)
	}
	p.writeLine(buffer.Bytes())
}

func (p *printer) Pf(format string, args ...any) {
	p.writeLine([]byte(fmt.Sprintf(format, args...)))
}

func (p *printer) In() {
	p.curIndents++
}

func (p *printer) Out() {
	if p.curIndents == 0 {
		p.recordError(errNegativeIndents)
		return
	}
	p.curIndents--
}

func (p *printer) Err() error {
	return p.err
}

func (p *printer) writeLine(value []byte) {
	var line bytes.Buffer
	if value = bytes.TrimRight(value, " \t\r\n"); len(value) > 0 {
		line.WriteString(strings.Repeat(p.indent, p.curIndents))
		line.Write(value)
	}
	line.WriteByte('\n')
	if _, err := p.writer.Write(line.Bytes()); err != nil {
		p.recordError(err)
	}
}

func (p *printer) recordError(err error) {
	if p.err == nil {
		p.err = err
	}
}
