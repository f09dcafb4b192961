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
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// hexLength is the length of the hex form of a SHA1 object id.
const hexLength = 2 * digestLength

// ZeroID is the all-zero object id. git update-ref accepts it as the old
// value to require that a ref does not exist yet.
const ZeroID ID = "0000000000000000000000000000000000000000"

// ID is the lowercase hex form of a git object id.
type ID string

// ParseID parses the hex form of an object id.
func ParseID(value string) (ID, error) {
	var id ID
	if err := id.UnmarshalText([]byte(value)); err != nil {
		return "", err
	}
	return id, nil
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// Short returns the abbreviated form of the id.
func (id ID) Short() string {
	if len(id) < 7 {
		return string(id)
	}
	return string(id[:7])
}

// IsZero returns true for the empty id and for ZeroID.
func (id ID) IsZero() bool {
	return id == "" || id == ZeroID
}

// UnmarshalText decodes the hex form of an id.
func (id *ID) UnmarshalText(data []byte) error {
	value := strings.ToLower(string(data))
	if len(value) != hexLength {
		return fmt.Errorf("object id %q: expected %d hex characters", value, hexLength)
	}
	if _, err := hex.DecodeString(value); err != nil {
		return fmt.Errorf("object id %q: %w", value, err)
	}
	*id = ID(value)
	return nil
}

// UnmarshalBinary decodes the raw digest form of an id, as found in tree
// entries.
func (id *ID) UnmarshalBinary(data []byte) error {
	if len(data) != digestLength {
		return errors.New("object id: malformed digest")
	}
	*id = ID(hex.EncodeToString(data))
	return nil
}
