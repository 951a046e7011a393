// Package boards holds the static register catalogs of supported DIO boards.
package boards

import (
	"sort"
	"strings"

	"github.com/hubertat/pcidio/flags"
)

type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Selector names an aligned byte, word or dword data register, e.g. "IN9_16".
type Selector string

// Region locates one register access window.
type Region struct {
	Bar    int
	Offset int
	Size   int
	Dir    Direction
}

// Bits returns the register width in bits.
func (r Region) Bits() int {
	return r.Size * 8
}

// InitFlag is the flag set a control register is reset to on initialization.
type InitFlag struct {
	Register int
	Flags    string
}

// Profile describes one board model. Profiles are built once and shared read only
// between all drivers of that model.
type Profile struct {
	Name     string
	IoNumber int

	DataBar      int
	InputOffset  int
	OutputOffset int

	FlagBar int
	In      *flags.Table
	Out     *flags.Table

	Selectors map[Selector]Region
	InitFlags []InitFlag

	LatchRegister   int
	AckRegister     int
	StbRegister     int
	BoardIdRegister int
}

// DataWidth is the byte width of the full input or output data register.
func (p *Profile) DataWidth() int {
	return p.IoNumber / 8
}

func (p *Profile) Region(sel Selector) (Region, bool) {
	r, ok := p.Selectors[sel]
	return r, ok
}

// SelectorsFor lists the selectors of one direction, sorted by offset then width.
func (p *Profile) SelectorsFor(dir Direction) []Selector {
	sels := []Selector{}
	for sel, r := range p.Selectors {
		if r.Dir == dir {
			sels = append(sels, sel)
		}
	}
	sort.Slice(sels, func(i, j int) bool {
		ri, rj := p.Selectors[sels[i]], p.Selectors[sels[j]]
		if ri.Offset != rj.Offset {
			return ri.Offset < rj.Offset
		}
		return ri.Size < rj.Size
	})
	return sels
}

var profiles = map[string]*Profile{
	PCI2724.Name: PCI2724,
}

// Lookup finds a profile by name, case insensitive.
func Lookup(name string) (*Profile, bool) {
	p, ok := profiles[strings.ToLower(name)]
	return p, ok
}

func Names() (names []string) {
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return
}
