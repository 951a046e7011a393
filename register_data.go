package pcidio

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/hubertat/pcidio/bitcodec"
)

// RegisterData is the payload of a register write. Implementations are
// BitVector, SignedInteger and CustomPacked.
type RegisterData interface {
	pack(width int) ([]byte, error)
}

// BitVector sets every channel of the register, its length must match the register width.
type BitVector bitcodec.Bits

func (bv BitVector) pack(width int) ([]byte, error) {
	if len(bv) != width*8 {
		return nil, errors.Wrapf(ErrInvalidListLength, "data length must be %d, not %d", width*8, len(bv))
	}
	return bitcodec.BitsToBytes(bitcodec.Bits(bv))
}

// SignedInteger is packed little endian, two's complement, at the register width.
type SignedInteger int64

func (si SignedInteger) pack(width int) ([]byte, error) {
	return bitcodec.IntToBytes(int64(si), width, binary.LittleEndian)
}

type PackKind int

const (
	PackSigned PackKind = iota
	PackUnsigned
	PackFloat
)

// PackFormat describes an explicit encoding of a register value.
type PackFormat struct {
	Order binary.ByteOrder
	Kind  PackKind
	Width int
}

// ParsePackFormat reads a single value struct format such as "<B", ">H" or "<f".
// Native order ("=", "@" or no prefix) is little endian.
func ParsePackFormat(s string) (pf PackFormat, err error) {
	pf.Order = binary.LittleEndian
	if len(s) == 2 {
		switch s[0] {
		case '<', '=', '@':
		case '>', '!':
			pf.Order = binary.BigEndian
		default:
			err = errors.Errorf("unknown byte order %q in pack format %q", s[0], s)
			return
		}
		s = s[1:]
	}
	if len(s) != 1 {
		err = errors.Errorf("pack format %q must describe one value", s)
		return
	}

	switch s[0] {
	case 'b':
		pf.Kind, pf.Width = PackSigned, 1
	case 'B':
		pf.Kind, pf.Width = PackUnsigned, 1
	case 'h':
		pf.Kind, pf.Width = PackSigned, 2
	case 'H':
		pf.Kind, pf.Width = PackUnsigned, 2
	case 'i', 'l':
		pf.Kind, pf.Width = PackSigned, 4
	case 'I', 'L':
		pf.Kind, pf.Width = PackUnsigned, 4
	case 'q':
		pf.Kind, pf.Width = PackSigned, 8
	case 'Q':
		pf.Kind, pf.Width = PackUnsigned, 8
	case 'f':
		pf.Kind, pf.Width = PackFloat, 4
	case 'd':
		pf.Kind, pf.Width = PackFloat, 8
	default:
		err = errors.Errorf("unsupported pack code %q", s[0])
	}
	return
}

// CustomPacked writes Value with an explicit format, e.g. unsigned or float encodings.
type CustomPacked struct {
	Format PackFormat
	Value  float64
}

// Packed builds a CustomPacked from a struct style format string.
func Packed(format string, value float64) (cp CustomPacked, err error) {
	cp.Value = value
	cp.Format, err = ParsePackFormat(format)
	return
}

func (cp CustomPacked) pack(width int) ([]byte, error) {
	pf := cp.Format
	if pf.Order == nil {
		pf.Order = binary.LittleEndian
	}
	if pf.Width != width {
		return nil, errors.Wrapf(ErrInvalidListLength, "packed width %d, register width %d", pf.Width, width)
	}

	switch pf.Kind {
	case PackFloat:
		buf := make([]byte, pf.Width)
		if pf.Width == 4 {
			pf.Order.PutUint32(buf, math.Float32bits(float32(cp.Value)))
		} else {
			pf.Order.PutUint64(buf, math.Float64bits(cp.Value))
		}
		return buf, nil

	case PackSigned, PackUnsigned:
		if math.Trunc(cp.Value) != cp.Value || math.IsInf(cp.Value, 0) {
			return nil, errors.Wrapf(bitcodec.ErrOutOfRange, "%v is not an integer", cp.Value)
		}
		if pf.Kind == PackSigned {
			if cp.Value < math.MinInt64 || cp.Value >= math.MaxInt64 {
				return nil, errors.Wrapf(bitcodec.ErrOutOfRange, "%v as signed integer", cp.Value)
			}
			return bitcodec.IntToBytes(int64(cp.Value), pf.Width, pf.Order)
		}
		if cp.Value < 0 || cp.Value >= math.MaxUint64 {
			return nil, errors.Wrapf(bitcodec.ErrOutOfRange, "%v as unsigned integer", cp.Value)
		}
		return bitcodec.UintToBytes(uint64(cp.Value), pf.Width, pf.Order)
	}

	return nil, errors.Errorf("unknown pack kind %d", pf.Kind)
}
