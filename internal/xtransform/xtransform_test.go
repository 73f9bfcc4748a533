package xtransform

import "testing"

func TestTransform4108ConvertsCallOperand(t *testing.T) {
	// E8 opcode at offset 0, absolute address 0x00001234 encoded
	// little-endian with a plausible (0x00) high byte.
	buf := []byte{0xE8, 0x34, 0x12, 0x00, 0x00, 0x90, 0x90, 0x90, 0x90}

	f := NewFilter(Dialect4108, false)
	f.Transform(buf)

	if buf[0] != 0xE8 {
		t.Fatalf("opcode byte must be left untouched, got %#x", buf[0])
	}
	src := uint32(0x00001234)
	want := src - 5 // cur = pos(0) + i(0) + 5
	got := uint32(buf[1]) | uint32(buf[2])<<8 | uint32(buf[3])<<16 | uint32(buf[4])<<24
	if got != want {
		t.Errorf("converted operand = %#x, want %#x", got, want)
	}
}

// TestTransform4108ConvertsRegardlessOfHighByte pins down that the pre-5.2.0
// dialect has no plausibility gate at all: every E8/E9 is converted even
// when the operand's high byte doesn't look like a sign-extended address.
func TestTransform4108ConvertsRegardlessOfHighByte(t *testing.T) {
	buf := []byte{0xE8, 0x34, 0x12, 0x00, 0x77, 0x90, 0x90, 0x90, 0x90}

	f := NewFilter(Dialect4108, false)
	f.Transform(buf)

	src := uint32(0x77001234)
	want := src - 5
	got := uint32(buf[1]) | uint32(buf[2])<<8 | uint32(buf[3])<<16 | uint32(buf[4])<<24
	if got != want {
		t.Errorf("converted operand = %#x, want %#x (implausible high byte must still convert)", got, want)
	}
}

func TestTransform4108ShortBufferNoPanic(t *testing.T) {
	buf := []byte{0xE8, 0x00}
	f := NewFilter(Dialect4108, false)
	f.Transform(buf) // must not panic on a buffer shorter than one instruction
}

func TestTransformStatefulAcrossCalls(t *testing.T) {
	// Splitting the same logical stream across two Transform calls must
	// produce the same result as one call, since f.pos carries state.
	whole := []byte{0x90, 0x90, 0x90, 0x90, 0x90, 0xE8, 0x00, 0x00, 0x00, 0x00}
	a := append([]byte(nil), whole...)
	fa := NewFilter(Dialect4108, false)
	fa.Transform(a)

	b := append([]byte(nil), whole...)
	fb := NewFilter(Dialect4108, false)
	fb.Transform(b[:5])
	fb.Transform(b[5:])

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("split transform diverged from single-call transform at byte %d: %v vs %v", i, a, b)
		}
	}
}

func TestTransform5200ConvertsPlausibleOperandLowBytesOnly(t *testing.T) {
	// E8 at offset 0, low-3-byte operand 0x001234, plausible (0x00) high byte.
	buf := []byte{0xE8, 0x34, 0x12, 0x00, 0x00, 0x90, 0x90, 0x90, 0x90}

	f := NewFilter(Dialect5200, false)
	f.Transform(buf)

	addr := uint32(5) // opcodePos(0) + 5, masked to 24 bits
	want := (uint32(0x001234) - addr) & 0xFFFFFF
	got := uint32(buf[1]) | uint32(buf[2])<<8 | uint32(buf[3])<<16
	if got != want {
		t.Errorf("converted operand = %#x, want %#x", got, want)
	}
	if buf[4] != 0x00 {
		t.Errorf("high byte = %#x, want unchanged 0x00 (no flip requested)", buf[4])
	}
}

func TestTransform5200LeavesImplausibleOperandAlone(t *testing.T) {
	buf := []byte{0xE8, 0x34, 0x12, 0x00, 0x77, 0x90, 0x90, 0x90, 0x90}
	want := append([]byte(nil), buf...)

	f := NewFilter(Dialect5200, false)
	f.Transform(buf)

	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("expected buffer unchanged when the high byte isn't plausible, got %v want %v", buf, want)
		}
	}
}

func TestTransform5200FlipsHighByteWhenBit23Set(t *testing.T) {
	// Low-3-byte operand 0, so rel = 0 - 5 wraps to 0xfffffb, which has bit
	// 23 set, triggering the flip.
	buf := []byte{0xE8, 0x00, 0x00, 0x00, 0x00, 0x90}

	f := NewFilter(Dialect5200, true)
	f.Transform(buf)

	if buf[4] != 0xFF {
		t.Errorf("high byte = %#x, want 0xFF after flip of 0x00", buf[4])
	}
}

func TestTransform5200SkipsOperandStraddlingBlockBoundary(t *testing.T) {
	f := NewFilter(Dialect5200, false)

	// Advance the filter's position to 2 bytes before the 64KB boundary, so
	// an E8 there has a 5-byte instruction that straddles the boundary.
	pad := make([]byte, blockSize-2)
	f.Transform(pad)

	buf := []byte{0xE8, 0x34, 0x12, 0x00, 0x00, 0x90}
	want := append([]byte(nil), buf...)
	f.Transform(buf)

	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("expected buffer unchanged for an operand straddling a block boundary, got %v want %v", buf, want)
		}
	}
}

func TestTransform5200NoLookbackIntoConsumedOperand(t *testing.T) {
	// The operand byte at index 2 is itself 0xE8; a lookback/mask scheme
	// might misinterpret it as a second candidate instruction, but scanning
	// must resume strictly after the first operand.
	buf := []byte{0xE8, 0x00, 0xE8, 0x00, 0x00, 0x90}

	f := NewFilter(Dialect5200, false)
	f.Transform(buf)

	addr := uint32(5)
	want := (uint32(0x00E800) - addr) & 0xFFFFFF
	got := uint32(buf[1]) | uint32(buf[2])<<8 | uint32(buf[3])<<16
	if got != want {
		t.Errorf("converted operand = %#x, want %#x", got, want)
	}
}

func TestDialectAndFlipHighByteAccessors(t *testing.T) {
	f := NewFilter(Dialect5200, true)
	if f.Dialect() != Dialect5200 {
		t.Errorf("Dialect() = %v, want Dialect5200", f.Dialect())
	}
	if !f.FlipHighByte() {
		t.Error("FlipHighByte() = false, want true")
	}

	f2 := NewFilter(Dialect4108, true)
	if f2.Dialect() != Dialect4108 {
		t.Errorf("Dialect() = %v, want Dialect4108", f2.Dialect())
	}
}
