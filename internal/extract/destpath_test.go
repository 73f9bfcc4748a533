package extract

import (
	"path/filepath"
	"testing"
)

func TestExpandPlaceholders(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no placeholder", `docs\readme.txt`, `docs\readme.txt`},
		{"unmapped constant stripped to bare name", `{app}\docs\readme.txt`, `app\docs\readme.txt`},
		{"escaped brace", `{{literal}\x.txt`, `{literal}\x.txt`},
		{"unsafe chars sanitized", `{app}\a<b>c:d"e|f?g*h.txt`, `app\a$b$c$d$e$f$g$h.txt`},
		{"unterminated placeholder", `{app\x.txt`, `$app\x.txt`},
		{"multiple constants", `{app}\{group}\x.txt`, `app\group\x.txt`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := expandPlaceholders(tc.input)
			if got != tc.want {
				t.Errorf("expandPlaceholders(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestDestinationPath(t *testing.T) {
	tests := []struct {
		name        string
		destination string
		want        string
	}{
		{"plain relative", `docs\readme.txt`, `out/docs/readme.txt`},
		{"backslash normalized", `a\b\c.txt`, `out/a/b/c.txt`},
		{"dot segment collapsed", `a\.\b.txt`, `out/a/b.txt`},
		{"parent segment collapsed within root", `a\..\b.txt`, `out/b.txt`},
		{"parent segment cannot escape root", `..\..\b.txt`, `out/b.txt`},
		{"constant placeholder expands in place", `{app}\b.txt`, `out/app/b.txt`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := destinationPath("out", tc.destination)
			want := filepath.FromSlash(tc.want)
			if got != want {
				t.Errorf("destinationPath(%q) = %q, want %q", tc.destination, got, want)
			}
		})
	}
}
