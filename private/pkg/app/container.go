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

package app

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

type container struct {
	EnvContainer
	StdinContainer
	StdoutContainer
	StderrContainer
	ArgContainer
}

func newContainer(
	envContainer EnvContainer,
	stdinContainer StdinContainer,
	stdoutContainer StdoutContainer,
	stderrContainer StderrContainer,
	argContainer ArgContainer,
) *container {
	return &container{
		EnvContainer:    envContainer,
		StdinContainer:  stdinContainer,
		StdoutContainer: stdoutContainer,
		StderrContainer: stderrContainer,
		ArgContainer:    argContainer,
	}
}

type envContainer struct {
	variables map[string]string
}

func newEnvContainer(m map[string]string) *envContainer {
	variables := make(map[string]string)
	for key, value := range m {
		if value != "" {
			variables[key] = value
		}
	}
	return &envContainer{
		variables: variables,
	}
}

func newEnvContainerForEnviron(environ []string) (*envContainer, error) {
	variables := make(map[string]string, len(environ))
	for _, elem := range environ {
		if !strings.ContainsRune(elem, '=') {
			// Do not print out as we don't want to mistakenly leak a secure environment variable.
			return nil, fmt.Errorf("environment variable does not contain =")
		}
		split := strings.SplitN(elem, "=", 2)
		if len(split) != 2 {
			// Do not print out as we don't want to mistakenly leak a secure environment variable.
			return nil, fmt.Errorf("unknown environment split")
		}
		if split[1] != "" {
			variables[split[0]] = split[1]
		}
	}
	return &envContainer{
		variables: variables,
	}, nil
}

func (e *envContainer) Env(key string) string {
	return e.variables[key]
}

func (e *envContainer) ForEachEnv(f func(string, string)) {
	for key, value := range e.variables {
		// This should be done anyways but just to make sure
		if value != "" {
			f(key, value)
		}
	}
}

type stdinContainer struct {
	reader io.Reader
}

func newStdinContainer(reader io.Reader) *stdinContainer {
	if reader == nil {
		reader = bytes.NewReader(nil)
	}
	return &stdinContainer{
		reader: reader,
	}
}

func (s *stdinContainer) Stdin() io.Reader {
	return s.reader
}

type stdoutContainer struct {
	writer io.Writer
}

func newStdoutContainer(writer io.Writer) *stdoutContainer {
	if writer == nil {
		writer = io.Discard
	}
	return &stdoutContainer{
		writer: writer,
	}
}

func (s *stdoutContainer) Stdout() io.Writer {
	return s.writer
}

type stderrContainer struct {
	writer io.Writer
}

func newStderrContainer(writer io.Writer) *stderrContainer {
	if writer == nil {
		writer = io.Discard
	}
	return &stderrContainer{
		writer: writer,
	}
}

func (s *stderrContainer) Stderr() io.Writer {
	return s.writer
}

type argContainer struct {
	args []string
}

func newArgContainer(args []string) *argContainer {
	return &argContainer{
		args: args,
	}
}

func (a *argContainer) NumArgs() int {
	return len(a.args)
}

func (a *argContainer) Arg(i int) string {
	return a.args[i]
}
