package extract

import (
	"path/filepath"
	"strings"
)

// expandPlaceholders resolves a FileEntry.Destination's "{name}" constant
// references the way the original tool does when it has no live install
// context to substitute real values into: an unmapped constant's braces
// are simply stripped, leaving its bare name as a literal path segment
// ("{app}\docs\readme.txt" becomes "app\docs\readme.txt"). "{{" is the
// escape for a literal brace.
//
// Grounded on original_source/src/setup/filename.cpp's
// filename_map::expand_variables/lookup fallback path.
func expandPlaceholders(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '{' {
			b.WriteByte(sanitizeChar(c))
			continue
		}
		if i+1 < len(s) && s[i+1] == '{' {
			b.WriteByte('{')
			i++
			continue
		}
		end := strings.IndexByte(s[i+1:], '}')
		if end < 0 {
			b.WriteByte('$')
			continue
		}
		name := s[i+1 : i+1+end]
		for j := 0; j < len(name); j++ {
			b.WriteByte(sanitizeChar(name[j]))
		}
		i += end + 1
	}
	return b.String()
}

// sanitizeChar replaces characters the original marks unsafe in a path
// segment (control characters and the handful of reserved Windows path
// characters) with '$', matching is_unsafe_path_char/replace_unsafe_chars.
func sanitizeChar(c byte) byte {
	if c < 32 {
		return '$'
	}
	switch c {
	case '<', '>', ':', '"', '|', '?', '*':
		return '$'
	}
	return c
}

// destinationPath resolves one FileEntry's Destination against outputDir,
// converting Windows path separators and collapsing "." / ".." segments
// the way shorten_path does, without ever escaping outputDir itself.
func destinationPath(outputDir, destination string) string {
	expanded := expandPlaceholders(destination)
	expanded = strings.ReplaceAll(expanded, "\\", "/")

	var segments []string
	for _, seg := range strings.Split(expanded, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, seg)
		}
	}

	rel := filepath.Join(segments...)
	return filepath.Join(outputDir, rel)
}
