package flags

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var ErrUnknownFlag = errors.New("unknown flag")

// Set is an unordered collection of flag names.
type Set map[string]struct{}

func NewSet(names ...string) Set {
	s := Set{}
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Parse splits a whitespace delimited flag list. Names are case sensitive,
// duplicates collapse and an empty string gives an empty set.
func Parse(s string) Set {
	return NewSet(strings.Fields(s)...)
}

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s Set) String() string {
	return strings.Join(s.Names(), " ")
}

func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if !other.Has(n) {
			return false
		}
	}
	return true
}

// UnusedMarker is reported by Decode for a set bit that has no name in the table.
func UnusedMarker(bit int) string {
	return fmt.Sprintf("<unused:bit%d>", bit)
}

// Codec translates flag sets to register bytes and back using one table.
type Codec struct {
	Table *Table
}

func NewCodec(table *Table) *Codec {
	return &Codec{Table: table}
}

func (c *Codec) Encode(reg int, names Set) (b byte, err error) {
	for _, name := range names.Names() {
		bit, found := c.Table.BitIndexOf(reg, name)
		if !found {
			err = errors.Wrapf(ErrUnknownFlag, "%q in register 0x%02x", name, reg)
			return 0, err
		}
		b |= 1 << bit
	}
	return
}

func (c *Codec) EncodeString(reg int, s string) (byte, error) {
	return c.Encode(reg, Parse(s))
}

func (c *Codec) Decode(reg int, b byte) Set {
	s := Set{}
	for bit := 0; bit < 8; bit++ {
		if b&(1<<bit) == 0 {
			continue
		}
		name := c.Table.NameOf(reg, bit)
		if name == "" {
			name = UnusedMarker(bit)
		}
		s[name] = struct{}{}
	}
	return s
}
