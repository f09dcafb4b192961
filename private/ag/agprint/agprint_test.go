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

package agprint

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/agtrack/ag/private/ag/agctl"
	"github.com/agtrack/ag/private/agpkg/agactivity"
	"github.com/agtrack/ag/private/agpkg/agrecord"
	"github.com/agtrack/ag/private/agpkg/agrelation"
	"github.com/agtrack/ag/private/agpkg/agstore"
	"github.com/agtrack/ag/private/agpkg/agsync"
	"github.com/agtrack/ag/private/pkg/git/object"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintShow(t *testing.T) {
	t.Parallel()
	buffer := bytes.NewBuffer(nil)
	err := PrintShow(buffer, &agctl.Entry{
		Record:  decode(t, "Summary: Fix the parser\n\nIt crashes.\n", "ab1234", agrecord.TypeIssue),
		Oneline: "[ab1234] Fix the parser",
	})
	require.NoError(t, err)
	assert.Equal(
		t,
		"-----------------------\n[ab1234] Fix the parser\n-----------------------\nSummary: Fix the parser\n\nIt crashes.\n",
		buffer.String(),
	)
}

func TestPrintLog(t *testing.T) {
	t.Parallel()
	buffer := bytes.NewBuffer(nil)
	err := PrintLog(buffer, []*object.Commit{
		newCommit("b", "Jane Doe", 2, "Modified issue [ab1234]: Fix the parser"),
		newCommit("a", "Bo", 1, "Added issue [ab1234]: Fix parser"),
	})
	require.NoError(t, err)
	assertGolden(t, "log", buffer.Bytes())
}

func TestPrintHistory(t *testing.T) {
	t.Parallel()
	buffer := bytes.NewBuffer(nil)
	err := PrintHistory(buffer, &agstore.History{
		Record: decode(t, "Summary: Fix the parser\n\nIt crashes.\n", "ab1234", agrecord.TypeIssue),
		Entries: []agstore.HistoryEntry{
			{
				Commit: newCommit("b", "Jane Doe", 2, "Modified issue [ab1234]: Fix the parser"),
				Record: decode(t, "Summary: Fix the parser\n\nIt crashes.\n", "ab1234", agrecord.TypeIssue),
			},
			{
				Commit: newCommit("a", "Jane Doe", 1, "Added issue [ab1234]: Fix parser"),
				Record: decode(t, "Summary: Fix parser\n\n", "ab1234", agrecord.TypeIssue),
			},
		},
		Deletion: newCommit("c", "Jane Doe", 3, "Removed issue [ab1234]: Fix the parser"),
	})
	require.NoError(t, err)
	assertGolden(t, "history", buffer.Bytes())
}

func TestPrintList(t *testing.T) {
	t.Parallel()
	buffer := bytes.NewBuffer(nil)
	err := PrintList(buffer, &agctl.Listing{
		Issues: []agctl.IssueLine{
			{
				ID:      "ab1234",
				Summary: "Fix the parser",
				Path:    []string{"Backend", "Parser"},
				Activity: &agactivity.Activity{
					Count:             2,
					ReachableFromHead: true,
				},
			},
			{
				ID:      "cd5678",
				Summary: "Speed up the lexer",
				Activity: &agactivity.Activity{
					Count: 1,
				},
			},
			{
				ID:      "ef9012",
				Summary: "Write docs",
			},
		},
		Categories: []agrelation.TreeLine{
			{ID: "ba0001", Summary: "Backend"},
			{ID: "ba0002", Summary: "Lexer", Prefix: "├──", Depth: 1},
			{ID: "ba0003", Summary: "Parser", Prefix: "└──", Depth: 1},
			{ID: "ba0004", Summary: "Grammar", Prefix: "   └──", Depth: 2},
			{ID: "fr0001", Summary: "Frontend"},
		},
	})
	require.NoError(t, err)
	assertGolden(t, "list", buffer.Bytes())
}

func TestPrintListEmpty(t *testing.T) {
	t.Parallel()
	buffer := bytes.NewBuffer(nil)
	require.NoError(t, PrintList(buffer, &agctl.Listing{}))
	assert.Empty(t, buffer.String())
}

func TestPrintSearchResults(t *testing.T) {
	t.Parallel()
	buffer := bytes.NewBuffer(nil)
	err := PrintSearchResults(buffer, []*agctl.SearchResult{
		{
			Entry: agctl.Entry{Oneline: "[ab1234] Backend / Fix the parser"},
		},
		{
			Entry:   agctl.Entry{Oneline: "[cd5678] Speed up the lexer"},
			Removed: true,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "[ab1234] Backend / Fix the parser\n[cd5678] Speed up the lexer (removed)\n", buffer.String())
}

func TestPrintSyncResult(t *testing.T) {
	t.Parallel()
	testPrintSyncResult(t, &agsync.Result{Action: agsync.ActionNone}, "_ag is up to date with origin\n")
	testPrintSyncResult(
		t,
		&agsync.Result{Action: agsync.ActionPushed, Remote: newID("a")},
		"pushed _ag to origin at aaaaaaa\n",
	)
	testPrintSyncResult(
		t,
		&agsync.Result{Action: agsync.ActionFastForwarded, Local: newID("b")},
		"fast-forwarded _ag from origin at bbbbbbb\n",
	)
}

func testPrintSyncResult(t *testing.T, result *agsync.Result, expected string) {
	t.Helper()
	buffer := bytes.NewBuffer(nil)
	require.NoError(t, PrintSyncResult(buffer, "_ag", "origin", result))
	assert.Equal(t, expected, buffer.String())
}

func TestSplitLines(t *testing.T) {
	t.Parallel()
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"a\n", "\n"}, splitLines("a\n\n"))
	assert.Equal(t, []string{"a\n", "b\n"}, splitLines("a\nb"))
}

func assertGolden(t *testing.T, name string, actual []byte) {
	t.Helper()
	goldie.New(
		t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	).Assert(t, name, actual)
}

func decode(t *testing.T, text string, id string, recordType agrecord.Type) agrecord.Record {
	t.Helper()
	record, err := agrecord.Decode(text, id, recordType)
	require.NoError(t, err)
	return record
}

func newCommit(idChar string, author string, minute int, message string) *object.Commit {
	ident := object.Ident{
		Name:      author,
		Email:     strings.ToLower(strings.ReplaceAll(author, " ", ".")) + "@example.com",
		Timestamp: time.Date(2024, 3, 1, 12, minute, 0, 0, time.UTC),
	}
	return &object.Commit{
		ID:        newID(idChar),
		Author:    ident,
		Committer: ident,
		Message:   message + "\n",
	}
}

func newID(idChar string) object.ID {
	return object.ID(strings.Repeat(idChar, 40))
}
