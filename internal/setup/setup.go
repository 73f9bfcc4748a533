package setup

import (
	"fmt"
	"io"
)

// Data is the fully decoded contents of the setup metadata stream: the
// global header plus every per-kind entry table, in the fixed order Inno
// Setup's compiler emits them.
//
// Grounded on original_source/src/setup/Data.cpp's top-level load sequence
// (languages, messages, permissions, types, components, tasks,
// directories, files, icons, ini edits, registry edits, install-time
// deletes, uninstall-time deletes, install-time runs, uninstall-time runs).
type Data struct {
	Header *Header

	Languages      []LanguageEntry
	CustomMessages []CustomMessageEntry
	Permissions    []PermissionEntry
	Types          []SetupType
	Components     []Component
	Tasks          []Task
	Directories    []DirectoryEntry
	Files          []FileEntry
	Icons          []IconEntry
	Inis           []IniEntry
	Registries     []RegistryEntry
	Deletes        []DeleteEntry
	UninstallDeletes []DeleteEntry
	Runs             []RunEntry
	UninstallRuns    []RunEntry

	// TrailingBytes counts bytes left unread in the header stream once
	// every entry table has been decoded. Inno Setup only warns when this
	// is non-zero rather than treating it as fatal, so callers should log
	// rather than reject.
	TrailingBytes int64
}

// Load reads the header block stream (r, already decompressed and
// reassembled by the block reader) and every entry table it introduces,
// in the version-gated order SetupHeader's counts describe.
func Load(r *Reader) (*Data, error) {
	h, err := HeaderLoad(r)
	if err != nil {
		return nil, err
	}

	d := &Data{Header: h}

	d.Languages = make([]LanguageEntry, h.NumLanguageEntries)
	for i := range d.Languages {
		if d.Languages[i], err = loadLanguageEntry(r); err != nil {
			return nil, fmt.Errorf("setup: language entry %d: %w", i, err)
		}
	}

	d.CustomMessages = make([]CustomMessageEntry, h.NumCustomMessageEntries)
	for i := range d.CustomMessages {
		if d.CustomMessages[i], err = loadCustomMessageEntry(r); err != nil {
			return nil, fmt.Errorf("setup: custom message entry %d: %w", i, err)
		}
	}

	d.Permissions = make([]PermissionEntry, h.NumPermissionEntries)
	for i := range d.Permissions {
		if d.Permissions[i], err = loadPermissionEntry(r); err != nil {
			return nil, fmt.Errorf("setup: permission entry %d: %w", i, err)
		}
	}

	d.Types = make([]SetupType, h.NumTypeEntries)
	for i := range d.Types {
		if d.Types[i], err = loadSetupType(r); err != nil {
			return nil, fmt.Errorf("setup: type entry %d: %w", i, err)
		}
	}

	d.Components = make([]Component, h.NumComponentEntries)
	for i := range d.Components {
		if d.Components[i], err = loadComponent(r); err != nil {
			return nil, fmt.Errorf("setup: component entry %d: %w", i, err)
		}
	}

	d.Tasks = make([]Task, h.NumTaskEntries)
	for i := range d.Tasks {
		if d.Tasks[i], err = loadTask(r); err != nil {
			return nil, fmt.Errorf("setup: task entry %d: %w", i, err)
		}
	}

	d.Directories = make([]DirectoryEntry, h.NumDirectoryEntries)
	for i := range d.Directories {
		if d.Directories[i], err = loadDirectoryEntry(r); err != nil {
			return nil, fmt.Errorf("setup: directory entry %d: %w", i, err)
		}
	}

	d.Files = make([]FileEntry, h.NumFileEntries)
	for i := range d.Files {
		if d.Files[i], err = loadFileEntry(r); err != nil {
			return nil, fmt.Errorf("setup: file entry %d: %w", i, err)
		}
	}

	d.Icons = make([]IconEntry, h.NumIconEntries)
	for i := range d.Icons {
		if d.Icons[i], err = loadIconEntry(r); err != nil {
			return nil, fmt.Errorf("setup: icon entry %d: %w", i, err)
		}
	}

	d.Inis = make([]IniEntry, h.NumIniEntries)
	for i := range d.Inis {
		if d.Inis[i], err = loadIniEntry(r); err != nil {
			return nil, fmt.Errorf("setup: ini entry %d: %w", i, err)
		}
	}

	d.Registries = make([]RegistryEntry, h.NumRegistryEntries)
	for i := range d.Registries {
		if d.Registries[i], err = loadRegistryEntry(r); err != nil {
			return nil, fmt.Errorf("setup: registry entry %d: %w", i, err)
		}
	}

	d.Deletes = make([]DeleteEntry, h.NumDeleteEntries)
	for i := range d.Deletes {
		if d.Deletes[i], err = loadDeleteEntry(r); err != nil {
			return nil, fmt.Errorf("setup: delete entry %d: %w", i, err)
		}
	}

	d.UninstallDeletes = make([]DeleteEntry, h.NumUninstallDeleteEntries)
	for i := range d.UninstallDeletes {
		if d.UninstallDeletes[i], err = loadDeleteEntry(r); err != nil {
			return nil, fmt.Errorf("setup: uninstall delete entry %d: %w", i, err)
		}
	}

	d.Runs = make([]RunEntry, h.NumRunEntries)
	for i := range d.Runs {
		if d.Runs[i], err = loadRunEntry(r); err != nil {
			return nil, fmt.Errorf("setup: run entry %d: %w", i, err)
		}
	}

	d.UninstallRuns = make([]RunEntry, h.NumUninstallRunEntries)
	for i := range d.UninstallRuns {
		if d.UninstallRuns[i], err = loadRunEntry(r); err != nil {
			return nil, fmt.Errorf("setup: uninstall run entry %d: %w", i, err)
		}
	}

	if d.TrailingBytes, err = drainTrailing(r.r); err != nil {
		return nil, fmt.Errorf("setup: draining trailing header bytes: %w", err)
	}

	return d, nil
}

// LoadFileLocations reads the second metadata block (the file-location
// table), decompressed and reassembled separately from the header block.
func LoadFileLocations(r *Reader, count int) ([]FileLocationEntry, error) {
	locs := make([]FileLocationEntry, count)
	for i := range locs {
		loc, err := loadFileLocationEntry(r)
		if err != nil {
			return nil, fmt.Errorf("setup: file location entry %d: %w", i, err)
		}
		locs[i] = loc
	}
	return locs, nil
}

// drainTrailing reads and discards any bytes remaining in r, returning the
// count consumed. Inno Setup's header stream is expected to end exactly at
// r's EOF; non-zero leftovers indicate either a version mismatch or stream
// corruption and are surfaced to the caller to log, not to fail on, since
// Inno itself only warns.
func drainTrailing(rd io.Reader) (int64, error) {
	n, err := io.Copy(io.Discard, rd)
	if err != nil {
		return n, err
	}
	return n, nil
}
