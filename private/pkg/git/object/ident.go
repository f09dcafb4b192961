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
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Ident is a git user identifier. You'll find these in author, committer, and
// other values for user identification.
type Ident struct {
	Name      string
	Email     string
	Timestamp time.Time
}

// String returns the identifier as "Name <email>".
func (i Ident) String() string {
	return i.Name + " <" + i.Email + ">"
}

// Date returns the timestamp in the raw "<unix seconds> <[+-]HHMM>" form
// accepted by GIT_AUTHOR_DATE and GIT_COMMITTER_DATE.
func (i Ident) Date() string {
	return strconv.FormatInt(i.Timestamp.Unix(), 10) + " " + i.Timestamp.Format("-0700")
}

// UnmarshalText decodes an identifier line such as
//
//	Jane Doe <jane@example.com> 1700000000 +0100
func (i *Ident) UnmarshalText(data []byte) error {
	// Many spaces between name and email are allowed.
	name, emailAndTime, found := strings.Cut(string(data), "<")
	if !found {
		return errors.New("ident: no email component")
	}
	i.Name = strings.TrimRight(name, " ")
	idx := strings.LastIndex(emailAndTime, ">")
	if idx == -1 {
		return errors.New("ident: malformed email component")
	}
	i.Email = emailAndTime[:idx]
	i.Timestamp = time.Time{}
	// The stamp is in Unix epoch and the user's UTC offset in [+-]HHMM when
	// the time was taken.
	timestr := strings.TrimLeft(emailAndTime[idx+1:], " ")
	if timestr == "" {
		return nil
	}
	timesecstr, timezonestr, found := strings.Cut(timestr, " ")
	if !found {
		return errors.New("ident: malformed timestamp: missing UTC offset")
	}
	timesec, err := strconv.ParseInt(timesecstr, 10, 64)
	if err != nil {
		return fmt.Errorf("ident: malformed timestamp: %w", err)
	}
	if len(timezonestr) != 5 {
		return fmt.Errorf("ident: malformed UTC offset %q", timezonestr)
	}
	tzHour, err := strconv.ParseInt(timezonestr[:3], 10, 32)
	if err != nil {
		return fmt.Errorf("ident: malformed timestamp: %w", err)
	}
	tzMin, err := strconv.ParseInt(timezonestr[3:], 10, 32)
	if err != nil {
		return fmt.Errorf("ident: malformed timestamp: %w", err)
	}
	tzOffset := int(tzHour)*60*60 + int(tzMin)*60
	if tzHour < 0 || timezonestr[0] == '-' {
		tzOffset = int(tzHour)*60*60 - int(tzMin)*60
	}
	i.Timestamp = time.Unix(timesec, 0).In(time.FixedZone("UTC"+timezonestr, tzOffset))
	return nil
}
