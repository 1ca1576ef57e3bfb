package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID is an entity identifier. Stored records and LLM replies may carry
// ids as either JSON strings or numbers, so decoding accepts both and
// normalizes to the string form.
type ID string

// NewID returns a fresh timestamp-based identifier, unique enough for a
// single-user, single-process store.
func NewID() ID {
	return ID(strconv.FormatInt(time.Now().UnixNano(), 10))
}

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID(n.String())
		return nil
	}

	return fmt.Errorf("id must be a string or number, got %s", data)
}

func (id ID) String() string {
	return string(id)
}
