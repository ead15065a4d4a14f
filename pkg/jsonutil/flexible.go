// Package jsonutil handles the loosely typed values API clients put in
// connection descriptors.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Port is a port number that unmarshals from either a JSON string or a JSON
// number. Clients disagree on which to send ("5432" vs 5432); both land as
// the decimal string the descriptor layer validates.
type Port string

func (p *Port) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*p = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		*p = Port(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, ierr := n.Int64(); ierr == nil {
			*p = Port(strconv.FormatInt(i, 10))
		} else {
			*p = Port(n.String())
		}
		return nil
	}

	// Anything else carries through as raw text for the descriptor layer
	// to reject with a proper message.
	*p = Port(raw)
	return nil
}

func (p Port) String() string { return string(p) }
