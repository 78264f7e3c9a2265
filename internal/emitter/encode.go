package emitter

import "encoding/binary"

// Argument-tag bytes written ahead of every operand's payload, so a listing
// reader (or cmd/vmfdump) can decode a raw instruction without a symbol
// table.
const (
	tagLiteral       byte = 0
	tagAbsoluteLocal byte = 1
	tagAbsoluteGlob  byte = 2
	tagIndirectLocal byte = 3
	tagIndirectGlob  byte = 4
)

func tagAbsolute(global bool) byte {
	if global {
		return tagAbsoluteGlob
	}
	return tagAbsoluteLocal
}

func tagIndirect(global bool) byte {
	if global {
		return tagIndirectGlob
	}
	return tagIndirectLocal
}

func encodeUint16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func encodeInt16(v int16) []byte {
	return encodeUint16(uint16(v))
}

// EncodeDisplacement encodes a jump displacement the way JumpResolver's patch
// callback needs it: a signed 2-byte little-endian value, the same width the
// jump operand's displacement slot was reserved at in emitCore.
func EncodeDisplacement(v int16) []byte {
	return encodeInt16(v)
}

// encodeAddr encodes v at the architecture's address width. Addresses are
// non-negative; call sites that need a signed displacement use
// EncodeDisplacement instead.
func encodeAddr(width int, v int64) []byte {
	b := make([]byte, width)
	switch width {
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, uint64(v))
	}
	return b
}
