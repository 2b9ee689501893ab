package addon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

var ErrDuplicateKey = errors.New("addon.duplicate_key")

// Item is one requested add-on and its quantity in sale units.
type Item struct {
	Key      string `json:"key"`
	Quantity int64  `json:"quantity"`
}

// Selection is an ordered set of add-on quantities. It decodes from a JSON
// object and keeps the object's key order.
type Selection []Item

// FromMap builds a Selection in the order given by keys. Keys absent from m
// are skipped.
func FromMap(m map[string]int64, keys ...string) Selection {
	s := make(Selection, 0, len(m))
	for _, k := range keys {
		if q, ok := m[k]; ok {
			s = append(s, Item{Key: k, Quantity: q})
		}
	}
	return s
}

// Map returns the selection as a map, the shape stored on the tenant.
func (s Selection) Map() map[string]int64 {
	m := make(map[string]int64, len(s))
	for _, it := range s {
		m[it.Key] = it.Quantity
	}
	return m
}

// Equal reports whether s holds exactly the quantities in m.
func (s Selection) Equal(m map[string]int64) bool {
	return maps.Equal(s.Map(), m) && len(s) == len(m)
}

func (s Selection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, it := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(it.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		fmt.Fprintf(&buf, ":%d", it.Quantity)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Selection) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("addon: selection must be a JSON object")
	}

	out := make(Selection, 0)
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		if seen[key] {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
		}
		seen[key] = true

		var q int64
		if err := dec.Decode(&q); err != nil {
			return fmt.Errorf("addon: quantity for %q: %w", key, err)
		}
		out = append(out, Item{Key: key, Quantity: q})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}
