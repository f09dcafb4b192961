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

package object

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitUnmarshal(t *testing.T) {
	t.Parallel()
	data := "tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n" +
		"parent " + string(testBlobID) + "\n" +
		"author Jane Doe <jane@example.com> 1700000000 +0130\n" +
		"committer Bot <bot@example.com> 1700000060 -0800\n" +
		"\n" +
		"Added issue [ab1234]: Crash on start\n\nbody\n"
	var commit Commit
	require.NoError(t, commit.UnmarshalText([]byte(data)))
	assert.Equal(t, ID("4b825dc642cb6eb9a060e54bf8d69288fbee4904"), commit.Tree)
	assert.Equal(t, []ID{testBlobID}, commit.Parents)
	assert.Equal(t, testBlobID, commit.FirstParent())
	assert.Equal(t, "Jane Doe <jane@example.com>", commit.Author.String())
	assert.Equal(t, int64(1700000000), commit.Author.Timestamp.Unix())
	_, offset := commit.Author.Timestamp.Zone()
	assert.Equal(t, 90*60, offset)
	_, offset = commit.Committer.Timestamp.Zone()
	assert.Equal(t, -8*60*60, offset)
	assert.Equal(t, "Added issue [ab1234]: Crash on start", commit.Subject())
}

func TestCommitUnmarshalRoot(t *testing.T) {
	t.Parallel()
	var commit Commit
	require.NoError(t, commit.UnmarshalText([]byte(
		"tree 4b825dc642cb6eb9a060e54bf8d69288fbee4904\n"+
			"author A <a@b> 1 +0000\ncommitter A <a@b> 1 +0000\n\nmsg\n",
	)))
	assert.Empty(t, commit.Parents)
	assert.Equal(t, ID(""), commit.FirstParent())
	assert.Error(t, commit.UnmarshalText([]byte("author A <a@b> 1 +0000\n\nmsg\n")))
}

func TestIdent(t *testing.T) {
	t.Parallel()
	var ident Ident
	require.NoError(t, ident.UnmarshalText([]byte("Jane   <jane@example.com>")))
	assert.Equal(t, "Jane", ident.Name)
	assert.True(t, ident.Timestamp.IsZero())
	assert.Error(t, ident.UnmarshalText([]byte("no email")))
	assert.Error(t, ident.UnmarshalText([]byte("A <a@b> 12")))

	ident = Ident{
		Name:      "A",
		Email:     "a@b",
		Timestamp: time.Unix(1700000000, 0).In(time.FixedZone("", -90*60)),
	}
	assert.Equal(t, "1700000000 -0130", ident.Date())
}

func TestID(t *testing.T) {
	t.Parallel()
	id, err := ParseID("7F8712B58DCE376AC1C3FF234163BA59CF28A1F4")
	require.NoError(t, err)
	assert.Equal(t, testBlobID, id)
	assert.Equal(t, "7f8712b", id.Short())
	assert.False(t, id.IsZero())
	assert.True(t, ZeroID.IsZero())
	_, err = ParseID("abc")
	assert.Error(t, err)
	_, err = ParseID("zz8712b58dce376ac1c3ff234163ba59cf28a1f4")
	assert.Error(t, err)
}
