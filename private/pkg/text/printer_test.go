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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter(t *testing.T) {
	t.Parallel()
	buffer := bytes.NewBuffer(nil)
	printer := NewPrinter(buffer)
	printer.P("foo")
	printer.In()
	printer.P("  bar  ")
	printer.P()
	printer.Pf("%s=%d", "baz", 1)
	printer.Out()
	printer.P("qux", 2)
	assert.NoError(t, printer.Err())
	assert.Equal(t, "foo\n    bar\n\n  baz=1\nqux2\n", buffer.String())
	printer.Out()
	assert.ErrorIs(t, printer.Err(), errNegativeIndents)
}
