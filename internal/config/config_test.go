package config

import "testing"

func TestDefaultsValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Defaults
		wantErr bool
	}{
		{"zero value", Defaults{}, false},
		{"overwrite", Defaults{Collisions: "overwrite"}, false},
		{"rename", Defaults{Collisions: "rename"}, false},
		{"rename-all", Defaults{Collisions: "rename-all"}, false},
		{"error policy", Defaults{Collisions: "error"}, false},
		{"unrecognized collisions", Defaults{Collisions: "nuke"}, true},
		{"negative codepage", Defaults{CodepageOverride: -1}, true},
		{"positive codepage", Defaults{CodepageOverride: 1252}, false},
		{"negative iterations", Defaults{XChaCha20Iterations: -1}, true},
		{"empty include pattern", Defaults{IncludePatterns: []string{"*.txt", ""}}, true},
		{"non-empty include patterns", Defaults{IncludePatterns: []string{"*.txt", "docs/**"}}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
