package units

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ID identifies a unit. Upstreams send it as either a JSON string or a
// JSON number; both decode to the same ID.
type ID string

// String returns the ID as a string.
func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON accepts "123", 123 and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}
