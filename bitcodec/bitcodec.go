// Package bitcodec converts between raw register bytes and per-channel bit lists.
//
// Bits are ordered least significant first within every byte, so bit 0 of byte 0
// is channel 1, bit 7 of byte 0 is channel 8 and bit 0 of byte 1 is channel 9.
package bitcodec

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrInvalidLength = errors.New("bit count is not a multiple of 8")
	ErrInvalidBit    = errors.New("bit value must be 0 or 1")
	ErrOutOfRange    = errors.New("value does not fit in width")
)

// Bits is a list of 0/1 values in ascending channel order.
type Bits []uint8

func (b Bits) String() string {
	sb := strings.Builder{}
	for _, bit := range b {
		if bit == 0 {
			sb.WriteByte('0')
		} else {
			sb.WriteByte('1')
		}
	}
	return sb.String()
}

// Equal reports whether both lists hold the same values.
func (b Bits) Equal(other Bits) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if b[i] != other[i] {
			return false
		}
	}
	return true
}

func BytesToBits(data []byte) Bits {
	bits := make(Bits, 0, len(data)*8)
	for _, d := range data {
		for i := 0; i < 8; i++ {
			bits = append(bits, (d>>i)&0x01)
		}
	}
	return bits
}

func BitsToBytes(bits Bits) (data []byte, err error) {
	if len(bits)%8 != 0 {
		err = errors.Wrapf(ErrInvalidLength, "got %d bits", len(bits))
		return
	}

	data = make([]byte, len(bits)/8)
	for i, bit := range bits {
		switch bit {
		case 0:
		case 1:
			data[i/8] |= 1 << (i % 8)
		default:
			data = nil
			err = errors.Wrapf(ErrInvalidBit, "got %d at position %d", bit, i)
			return
		}
	}
	return
}

// BytesToHex renders data as upper case hex, first byte first.
func BytesToHex(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}

// BytesToInt interprets 1 to 8 bytes as an integer in the given byte order.
func BytesToInt(data []byte, signed bool, order binary.ByteOrder) (int64, error) {
	width := len(data)
	if width < 1 || width > 8 {
		return 0, errors.Errorf("cannot convert %d bytes to integer", width)
	}

	var buf [8]byte
	if order == binary.BigEndian {
		copy(buf[8-width:], data)
	} else {
		copy(buf[:width], data)
	}

	var u uint64
	if order == binary.BigEndian {
		u = binary.BigEndian.Uint64(buf[:])
	} else {
		u = binary.LittleEndian.Uint64(buf[:])
	}

	if signed && width < 8 {
		shift := uint(64 - 8*width)
		return int64(u<<shift) >> shift, nil
	}
	return int64(u), nil
}

// IntToBytes packs v into width bytes as a two's complement integer.
func IntToBytes(v int64, width int, order binary.ByteOrder) ([]byte, error) {
	if width < 1 || width > 8 {
		return nil, errors.Errorf("unsupported integer width %d", width)
	}
	if width < 8 {
		limit := int64(1) << (8*width - 1)
		if v < -limit || v >= limit {
			return nil, errors.Wrapf(ErrOutOfRange, "%d as signed %d byte integer", v, width)
		}
	}

	return putUint(uint64(v), width, order), nil
}

// UintToBytes packs v into width bytes.
func UintToBytes(v uint64, width int, order binary.ByteOrder) ([]byte, error) {
	if width < 1 || width > 8 {
		return nil, errors.Errorf("unsupported integer width %d", width)
	}
	if width < 8 && v >= uint64(1)<<(8*width) {
		return nil, errors.Wrapf(ErrOutOfRange, "%d as unsigned %d byte integer", v, width)
	}

	return putUint(v, width, order), nil
}

func putUint(v uint64, width int, order binary.ByteOrder) []byte {
	var buf [8]byte
	if order == binary.BigEndian {
		binary.BigEndian.PutUint64(buf[:], v)
		return append([]byte{}, buf[8-width:]...)
	}
	binary.LittleEndian.PutUint64(buf[:], v)
	return append([]byte{}, buf[:width]...)
}
