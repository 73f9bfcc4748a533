package textenc

import "testing"

func TestEncodeUTF16LE(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
	}{
		{"empty", "", nil},
		{"ascii", "AB", []byte{'A', 0, 'B', 0}},
		{"non-ascii bmp", "é", []byte{0xe9, 0x00}}, // é
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EncodeUTF16LE(tc.input)
			if len(got) != len(tc.want) {
				t.Fatalf("EncodeUTF16LE(%q) = %v, want %v", tc.input, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("EncodeUTF16LE(%q) = %v, want %v", tc.input, got, tc.want)
				}
			}
		})
	}
}

func TestEncodeDecodeUTF16LERoundTrip(t *testing.T) {
	for _, s := range []string{"hello", "hunter2", "café", "\U0001F600"} {
		encoded := EncodeUTF16LE(s)
		decoded := DecodeUTF16LE(encoded)
		if decoded != s {
			t.Errorf("round trip for %q: got %q", s, decoded)
		}
	}
}
