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

// Package agprint renders records and listings as plain text.
package agprint

import (
	"io"
	"strings"

	"github.com/agtrack/ag/private/ag/agctl"
	"github.com/agtrack/ag/private/agpkg/agrecord"
	"github.com/agtrack/ag/private/agpkg/agstore"
	"github.com/agtrack/ag/private/agpkg/agsync"
	"github.com/agtrack/ag/private/pkg/git/object"
	"github.com/agtrack/ag/private/pkg/stringutil"
	"github.com/agtrack/ag/private/pkg/text"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	timeLayout = "2006/01/02 15:04:05"

	markerMerged   = "*"
	markerActive   = "+"
	markerInactive = " "
)

// PrintShow prints the one-line description of a record framed by dashes,
// followed by the text of the record.
func PrintShow(writer io.Writer, entry *agctl.Entry) error {
	printer := text.NewPrinter(writer)
	dashes := strings.Repeat("-", len([]rune(entry.Oneline)))
	printer.P(dashes)
	printer.P(entry.Oneline)
	printer.P(dashes)
	printText(printer, recordText(entry.Record))
	return printer.Err()
}

// PrintLog prints one line per commit:
//
//	2024/03/01 12:00:00 | Jane Doe | Added issue [ab1234]: Fix the parser
func PrintLog(writer io.Writer, commits []*object.Commit) error {
	printer := text.NewPrinter(writer)
	width := 1
	for _, commit := range commits {
		if n := len([]rune(commit.Author.Name)); n > width {
			width = n
		}
	}
	for _, commit := range commits {
		printer.Pf(
			"%s | %s | %s",
			commit.Author.Timestamp.Format(timeLayout),
			stringutil.PadRight(commit.Author.Name, width),
			commit.Subject(),
		)
	}
	return printer.Err()
}

// PrintHistory prints every version of a record, newest first, each with a
// unified diff against the version before it.
func PrintHistory(writer io.Writer, history *agstore.History) error {
	printer := text.NewPrinter(writer)
	first := true
	if history.Deletion != nil {
		printCommit(printer, history.Deletion)
		printer.P("(removed)")
		first = false
	}
	for i, entry := range history.Entries {
		if !first {
			printer.P()
		}
		first = false
		printCommit(printer, entry.Commit)
		fromFile := "/dev/null"
		var from string
		if i+1 < len(history.Entries) {
			fromFile = "a/" + recordPath(entry.Record)
			from = recordText(history.Entries[i+1].Record)
		}
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        splitLines(from),
			B:        splitLines(recordText(entry.Record)),
			FromFile: fromFile,
			ToFile:   "b/" + recordPath(entry.Record),
			Context:  3,
		})
		if err != nil {
			return err
		}
		printText(printer, diff)
	}
	return printer.Err()
}

// PrintList prints the category tree followed by the issues.
//
// Issues are marked with "*" if a commit merged into the checked out
// branch mentions them, and with "+" if only commits on other branches do.
func PrintList(writer io.Writer, listing *agctl.Listing) error {
	printer := text.NewPrinter(writer)
	if len(listing.Categories) > 0 {
		printer.P("Categories:")
		printer.In()
		for _, line := range listing.Categories {
			if line.Prefix == "" {
				printer.Pf("[%s] %s", line.ID, line.Summary)
				continue
			}
			printer.Pf("[%s] %s %s", line.ID, line.Prefix, line.Summary)
		}
		printer.Out()
	}
	if len(listing.Issues) > 0 {
		if len(listing.Categories) > 0 {
			printer.P()
		}
		printer.P("Issues:")
		printer.In()
		for _, issue := range listing.Issues {
			summary := issue.Summary
			if len(issue.Path) > 0 {
				summary = strings.Join(issue.Path, " / ") + ": " + summary
			}
			printer.Pf("[%s] %s %s", issue.ID, marker(issue), summary)
		}
		printer.Out()
	}
	return printer.Err()
}

// PrintSearchResults prints the one-line description of every result.
func PrintSearchResults(writer io.Writer, results []*agctl.SearchResult) error {
	printer := text.NewPrinter(writer)
	for _, result := range results {
		if result.Removed {
			printer.P(result.Oneline, " (removed)")
			continue
		}
		printer.P(result.Oneline)
	}
	return printer.Err()
}

// PrintSyncResult prints what sync did.
func PrintSyncResult(writer io.Writer, branch string, remote string, result *agsync.Result) error {
	printer := text.NewPrinter(writer)
	switch result.Action {
	case agsync.ActionNone:
		printer.Pf("%s is up to date with %s", branch, remote)
	case agsync.ActionPushed:
		printer.Pf("pushed %s to %s at %s", branch, remote, result.Remote.Short())
	default:
		printer.Pf("%s %s from %s at %s", result.Action, branch, remote, result.Local.Short())
	}
	return printer.Err()
}

func printCommit(printer text.Printer, commit *object.Commit) {
	printer.Pf("commit %s", commit.ID)
	printer.Pf("Author: %s", commit.Author)
	printer.Pf("Date:   %s", commit.Author.Timestamp.Format(timeLayout))
	printer.P()
	printer.In()
	printer.P(commit.Subject())
	printer.Out()
	printer.P()
}

func printText(printer text.Printer, value string) {
	for _, line := range strings.Split(strings.TrimSuffix(value, "\n"), "\n") {
		printer.P(line)
	}
}

func marker(issue agctl.IssueLine) string {
	switch {
	case issue.Activity == nil:
		return markerInactive
	case issue.Activity.ReachableFromHead:
		return markerMerged
	default:
		return markerActive
	}
}

// recordText returns the stored text of a record, or its encoding if it was
// built in code.
func recordText(record agrecord.Record) string {
	if original := record.Original(); original != "" {
		return original
	}
	return agrecord.Encode(record, nil)
}

func recordPath(record agrecord.Record) string {
	return record.Type().String() + "/" + record.ID()
}

// splitLines splits value into lines that each end with a newline.
func splitLines(value string) []string {
	if value == "" {
		return nil
	}
	lines := strings.SplitAfter(value, "\n")
	if last := len(lines) - 1; lines[last] == "" {
		lines = lines[:last]
	} else {
		lines[last] += "\n"
	}
	return lines
}
