// Package xtransform inverts the x86 CALL/JMP address filter Inno Setup's
// compressor applies to executable payloads before compression, so that
// decompressed bytes come back out looking like the original machine code.
//
// Two historical dialects exist. Dialect4108 is the converter used before
// Inno Setup 5.2.0: every E8/E9 opcode's following 4-byte little-endian
// operand is replaced, unconditionally, with operand − position, with no
// plausibility check on any byte of it. Dialect5200 is the converter Inno
// Setup 5.2.0 onward uses: it only rewrites the low 3 bytes of the operand,
// and only when the operand's pre-replacement high byte is 0x00 or 0xFF
// (likely a sign-extended relative address); an E8/E9 whose 4-byte operand
// would straddle a 64KB boundary is left alone entirely. For setups built
// by 5.3.9 or later (flipHighByte), a converted operand whose replacement
// value has bit 23 set gets its high byte bitwise-inverted for a slightly
// better compression ratio. Neither dialect tracks any lookback state
// between instructions — once an E8/E9 is committed to, scanning resumes
// strictly after its 4-byte operand.
//
// Grounded on original_source/src/stream/InstructionFilter.hpp's
// call_instruction_decoder_4108::read and call_instruction_decoder_5200::read.
package xtransform

const blockSize = 1 << 16 // 64 KiB; dialect5200 leaves spanning operands untouched.

// Dialect selects which historical call-transform algorithm to apply.
type Dialect int

const (
	Dialect4108 Dialect = iota
	Dialect5200
)

// Filter reverses the call-transform over one file's decompressed byte
// stream. It is stateful: Transform must be called with successive slices
// of the same logical stream, in order, for the position-dependent address
// rewriting to line up the way the original encoder produced it.
type Filter struct {
	dialect      Dialect
	flipHighByte bool // dialect5200 only, setups built by Inno Setup >= 5.3.9
	pos          uint32
}

// NewFilter constructs a Filter for the given dialect. flipHighByte only
// applies to Dialect5200 and is ignored otherwise.
func NewFilter(dialect Dialect, flipHighByte bool) *Filter {
	return &Filter{dialect: dialect, flipHighByte: flipHighByte}
}

// Dialect reports which historical call-transform algorithm f applies.
func (f *Filter) Dialect() Dialect {
	return f.dialect
}

// FlipHighByte reports whether f was constructed with the >=5.3.9
// high-byte-flip behavior enabled. Always false for Dialect4108.
func (f *Filter) FlipHighByte() bool {
	return f.flipHighByte
}

// Transform rewrites buf in place, advancing the filter's internal position
// by len(buf). buf should be presented in contiguous, in-order slices (the
// orchestrator feeds it 4096-byte block-reader reads, which satisfies this).
func (f *Filter) Transform(buf []byte) {
	switch f.dialect {
	case Dialect4108:
		f.transform4108(buf)
	default:
		f.transform5200(buf)
	}
}

func test86MSByte(b byte) bool {
	return b == 0x00 || b == 0xFF
}

// transform4108 implements the pre-5.2.0 converter: every E8/E9 opcode's
// 4-byte little-endian operand is replaced by operand − position
// unconditionally, full 32 bits, with no check on any byte of the operand.
func (f *Filter) transform4108(buf []byte) {
	if len(buf) < 5 {
		f.pos += uint32(len(buf))
		return
	}
	limit := len(buf) - 4
	i := 0
	for i < limit {
		if buf[i]&0xFE != 0xE8 {
			i++
			continue
		}
		src := uint32(buf[i+1]) | uint32(buf[i+2])<<8 | uint32(buf[i+3])<<16 | uint32(buf[i+4])<<24
		cur := f.pos + uint32(i) + 5
		dest := src - cur
		buf[i+1] = byte(dest)
		buf[i+2] = byte(dest >> 8)
		buf[i+3] = byte(dest >> 16)
		buf[i+4] = byte(dest >> 24)
		i += 5
	}
	f.pos += uint32(len(buf))
}

// transform5200 implements the 5.2.0+ converter: every E8/E9 opcode whose
// 4-byte operand doesn't straddle a 64KB boundary is committed to (scanning
// resumes strictly after its operand either way), but only the low 3 bytes
// get rewritten, and only when the operand's pre-replacement high byte is
// 0x00 or 0xFF. There is no history between instructions.
func (f *Filter) transform5200(buf []byte) {
	if len(buf) < 5 {
		f.pos += uint32(len(buf))
		return
	}
	limit := len(buf) - 4
	i := 0
	for i < limit {
		if buf[i]&0xFE != 0xE8 {
			i++
			continue
		}

		opcodePos := f.pos + uint32(i)
		if blockSize-opcodePos%blockSize < 5 {
			i++
			continue
		}

		if test86MSByte(buf[i+4]) {
			addr := (opcodePos + 5) & 0xFFFFFF
			rel := uint32(buf[i+1]) | uint32(buf[i+2])<<8 | uint32(buf[i+3])<<16
			rel = (rel - addr) & 0xFFFFFF
			buf[i+1] = byte(rel)
			buf[i+2] = byte(rel >> 8)
			buf[i+3] = byte(rel >> 16)
			if f.flipHighByte && rel&0x800000 != 0 {
				buf[i+4] = ^buf[i+4]
			}
		}

		i += 5
	}
	f.pos += uint32(len(buf))
}
