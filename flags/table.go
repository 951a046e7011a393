// Package flags maps named control and status bits of a board to register bit positions.
package flags

// Table is an immutable lookup of register index and bit position to flag name.
// An empty name marks an unused bit. The register index is the register offset
// within the board's flag BAR.
type Table struct {
	rows [][8]string
}

func NewTable(rows ...[8]string) *Table {
	t := &Table{rows: make([][8]string, len(rows))}
	copy(t.rows, rows)
	return t
}

// Len returns the number of registers described by the table.
func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) NameOf(reg, bit int) string {
	if reg < 0 || reg >= len(t.rows) || bit < 0 || bit > 7 {
		return ""
	}
	return t.rows[reg][bit]
}

func (t *Table) BitIndexOf(reg int, name string) (int, bool) {
	if reg < 0 || reg >= len(t.rows) || name == "" {
		return 0, false
	}
	for bit, n := range t.rows[reg] {
		if n == name {
			return bit, true
		}
	}
	return 0, false
}

// Names returns the named bits of one register, ordered by bit position.
func (t *Table) Names(reg int) (names []string) {
	if reg < 0 || reg >= len(t.rows) {
		return
	}
	for _, n := range t.rows[reg] {
		if n != "" {
			names = append(names, n)
		}
	}
	return
}
