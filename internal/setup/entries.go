package setup

// LanguageEntry describes one localization the installer offers, including
// the codepage its own ansi_string fields (and CustomMessageEntry values
// tagged with this language) are encoded in.
//
// Grounded on original_source/src/setup/LanguageEntry.hpp.
type LanguageEntry struct {
	Name              string
	LanguageName      string
	DialogFontName    string
	TitleFontName     string
	WelcomeFontName   string
	CopyrightFontName string
	Data              string
	LicenseText       string
	InfoBeforeText    string
	InfoAfterText     string

	LanguageID uint32
	Codepage   int

	DialogFontSize           int
	DialogFontStandardHeight int
	TitleFontSize            int
	WelcomeFontSize          int
	CopyrightFontSize        int

	RightToLeft bool
}

func loadLanguageEntry(r *Reader) (LanguageEntry, error) {
	v := r.Version()
	var e LanguageEntry
	var err error

	if !v.AtLeast(1, 3, 21, 0) {
		if _, err = r.UInt32(); err != nil {
			return e, err
		}
	}
	if e.Name, err = r.String(); err != nil {
		return e, err
	}
	if e.LanguageName, err = r.UnicodeString(); err != nil {
		return e, err
	}
	if e.DialogFontName, err = r.String(); err != nil {
		return e, err
	}
	if e.TitleFontName, err = r.String(); err != nil {
		return e, err
	}
	if e.WelcomeFontName, err = r.String(); err != nil {
		return e, err
	}
	if e.CopyrightFontName, err = r.String(); err != nil {
		return e, err
	}
	if e.Data, err = r.String(); err != nil {
		return e, err
	}
	if !v.AtLeast(4, 0, 0, 0) {
		if e.LicenseText, err = r.AnsiString(); err != nil {
			return e, err
		}
		if e.InfoBeforeText, err = r.AnsiString(); err != nil {
			return e, err
		}
		if e.InfoAfterText, err = r.AnsiString(); err != nil {
			return e, err
		}
	}

	if e.LanguageID, err = r.UInt32(); err != nil {
		return e, err
	}
	if !v.Unicode {
		cp, err := r.UInt32()
		if err != nil {
			return e, err
		}
		e.Codepage = int(cp)
		if e.Codepage == 0 {
			e.Codepage = DefaultANSICodepageNumber
		}
	} else {
		e.Codepage = 0 // unicode streams don't use a per-language ansi codepage
	}

	if n, err := r.UInt32(); err != nil {
		return e, err
	} else {
		e.DialogFontSize = int(n)
	}
	if !v.AtLeast(4, 1, 0, 0) {
		if n, err := r.UInt32(); err != nil {
			return e, err
		} else {
			e.DialogFontStandardHeight = int(n)
		}
	}
	if n, err := r.UInt32(); err != nil {
		return e, err
	} else {
		e.TitleFontSize = int(n)
	}
	if n, err := r.UInt32(); err != nil {
		return e, err
	} else {
		e.WelcomeFontSize = int(n)
	}
	if n, err := r.UInt32(); err != nil {
		return e, err
	} else {
		e.CopyrightFontSize = int(n)
	}

	if v.AtLeast(5, 2, 3, 0) {
		if e.RightToLeft, err = r.Bool(); err != nil {
			return e, err
		}
	}

	return e, nil
}

// DefaultANSICodepageNumber is the codepage a legacy LanguageEntry falls
// back to when it records codepage 0; it has the same value as
// textenc.DefaultANSICodepage.
const DefaultANSICodepageNumber = 1252

// PermissionEntry stores one raw Windows security descriptor referenced by
// index from DirectoryEntry/FileEntry's Permission field.
//
// Grounded on original_source/src/setup/PermissionEntry.hpp.
type PermissionEntry struct {
	Permissions []byte
}

func loadPermissionEntry(r *Reader) (PermissionEntry, error) {
	b, err := r.Bytes()
	return PermissionEntry{Permissions: b}, err
}

// Component describes one selectable install component (the Setup Types /
// Components wizard pages' unit of selection).
//
// Grounded on original_source/src/setup/SetupComponentEntry.hpp.
type Component struct {
	Name, Description string
	Types, Languages  string
	Check             string

	ExtraDiskSpaceRequired uint64
	Level                  int
	Used                   bool

	Windows WindowsVersionRange

	Fixed                     bool
	Restart                   bool
	DisableNoUninstallWarning bool
	Exclusive                 bool
	DontInheritCheck          bool

	Size uint64
}

func loadComponent(r *Reader) (Component, error) {
	v := r.Version()
	var c Component
	var err error

	if c.Name, err = r.String(); err != nil {
		return c, err
	}
	if c.Description, err = r.String(); err != nil {
		return c, err
	}
	if c.Types, err = r.String(); err != nil {
		return c, err
	}
	if v.AtLeast(4, 0, 1, 0) {
		if c.Languages, err = r.String(); err != nil {
			return c, err
		}
	}
	if c.Check, err = r.String(); err != nil {
		return c, err
	}
	if v.AtLeast(4, 0, 0, 0) {
		n, err := r.Int64()
		if err != nil {
			return c, err
		}
		c.ExtraDiskSpaceRequired = uint64(n)
	}
	if v.AtLeast(4, 0, 1, 0) {
		n, err := r.Int32()
		if err != nil {
			return c, err
		}
		c.Level = int(n)
		if c.Used, err = r.Bool(); err != nil {
			return c, err
		}
	} else {
		c.Level = 0
		c.Used = true
	}

	if c.Windows, err = readWindowsVersionRange(r); err != nil {
		return c, err
	}

	flags, err := r.ReadFlags(5)
	if err != nil {
		return c, err
	}
	c.Fixed = flags.Has(0)
	c.Restart = flags.Has(1)
	c.DisableNoUninstallWarning = flags.Has(2)
	c.Exclusive = flags.Has(3)
	c.DontInheritCheck = flags.Has(4)

	if v.AtLeast(4, 0, 0, 0) {
		n, err := r.Int64()
		if err != nil {
			return c, err
		}
		c.Size = uint64(n)
	}

	return c, nil
}

// SetupType describes one predefined installation type ("Full", "Compact",
// "Custom", or a user-defined type) offered on the Setup Type wizard page.
//
// Grounded on original_source/src/setup/SetupTypeEntry.hpp.
type SetupType struct {
	Name, Description string
	Languages, Check  string

	Windows WindowsVersionRange

	CustomSetupType bool

	Kind int // 0 user, 1 default-full, 2 default-compact, 3 default-custom

	Size uint64
}

func loadSetupType(r *Reader) (SetupType, error) {
	v := r.Version()
	var t SetupType
	var err error

	if t.Name, err = r.String(); err != nil {
		return t, err
	}
	if t.Description, err = r.String(); err != nil {
		return t, err
	}
	if v.AtLeast(4, 0, 1, 0) {
		if t.Languages, err = r.String(); err != nil {
			return t, err
		}
	}
	if t.Check, err = r.String(); err != nil {
		return t, err
	}

	if t.Windows, err = readWindowsVersionRange(r); err != nil {
		return t, err
	}

	flags, err := r.ReadFlags(1)
	if err != nil {
		return t, err
	}
	t.CustomSetupType = flags.Has(0)

	if v.AtLeast(4, 0, 1, 0) {
		b, err := r.Byte()
		if err != nil {
			return t, err
		}
		t.Kind = int(b)
	}

	if v.AtLeast(4, 0, 0, 0) {
		n, err := r.Int64()
		if err != nil {
			return t, err
		}
		t.Size = uint64(n)
	}

	return t, nil
}

// Task describes one optional post-install action the user may check on
// the Select Additional Tasks wizard page (e.g. "create a desktop icon").
// Not present as a standalone file in the retrieved original source;
// modeled after the shared SetupItem-prefixed entry shape DirectoryEntry
// and DeleteEntry both follow, since Inno's compiler emits task records
// with the same common prefix plus a name/description/group/flags tail.
type Task struct {
	Item        SetupItem
	Name        string
	Description string
	GroupDescription string
	Exclusive   bool
	Unchecked   bool
	RestartComputer bool
	CheckedOnce bool
}

func loadTask(r *Reader) (Task, error) {
	v := r.Version()
	var t Task
	var err error

	if t.Name, err = r.String(); err != nil {
		return t, err
	}
	if t.Description, err = r.String(); err != nil {
		return t, err
	}
	if t.GroupDescription, err = r.String(); err != nil {
		return t, err
	}
	if t.Item, err = readSetupItem(r); err != nil {
		return t, err
	}

	flagCount := 2
	if v.AtLeast(2, 0, 5, 0) {
		flagCount = 4
	}
	flags, err := r.ReadFlags(flagCount)
	if err != nil {
		return t, err
	}
	t.Exclusive = flags.Has(0)
	t.Unchecked = flags.Has(1)
	if flagCount > 2 {
		t.RestartComputer = flags.Has(2)
		t.CheckedOnce = flags.Has(3)
	}

	return t, nil
}

// DirectoryEntry describes one directory the installer ensures exists (and
// may tear down again at uninstall time).
//
// Grounded on original_source/src/setup/DirectoryEntry.{hpp,cpp}.
type DirectoryEntry struct {
	Item        SetupItem
	Name        string
	Permissions string

	Attributes uint32
	Permission int

	NeverUninstall       bool
	DeleteAfterInstall   bool
	AlwaysUninstall      bool
	SetNtfsCompression   bool
	UnsetNtfsCompression bool
}

func loadDirectoryEntry(r *Reader) (DirectoryEntry, error) {
	v := r.Version()
	var d DirectoryEntry
	var err error

	if !v.AtLeast(1, 3, 21, 0) {
		if _, err = r.UInt32(); err != nil {
			return d, err
		}
	}
	if d.Name, err = r.String(); err != nil {
		return d, err
	}
	if d.Item, err = readSetupItem(r); err != nil {
		return d, err
	}
	if v.AtLeast(4, 0, 11, 0) && !v.AtLeast(4, 1, 0, 0) {
		if d.Permissions, err = r.String(); err != nil {
			return d, err
		}
	}
	if v.AtLeast(2, 0, 11, 0) {
		if d.Attributes, err = r.UInt32(); err != nil {
			return d, err
		}
	}
	if v.AtLeast(4, 1, 0, 0) {
		n, err := r.UInt16()
		if err != nil {
			return d, err
		}
		d.Permission = int(int16(n))
	} else {
		d.Permission = -1
	}

	n := 3
	if v.AtLeast(5, 2, 0, 0) {
		n = 5
	}
	flags, err := r.ReadFlags(n)
	if err != nil {
		return d, err
	}
	d.NeverUninstall = flags.Has(0)
	d.DeleteAfterInstall = flags.Has(1)
	d.AlwaysUninstall = flags.Has(2)
	if n > 3 {
		d.SetNtfsCompression = flags.Has(3)
		d.UnsetNtfsCompression = flags.Has(4)
	}

	return d, nil
}

// DeleteEntry is one path the installer or uninstaller should remove,
// either directly or as part of uninstall-time cleanup.
//
// Grounded on original_source/src/setup/DeleteEntry.{hpp,cpp}.
type DeleteEntry struct {
	Item SetupItem
	Name string
	Kind int // 0 files, 1 files and subdirs, 2 dir if empty
}

func loadDeleteEntry(r *Reader) (DeleteEntry, error) {
	v := r.Version()
	var d DeleteEntry
	var err error

	if !v.AtLeast(1, 3, 21, 0) {
		if _, err = r.UInt32(); err != nil {
			return d, err
		}
	}
	if d.Name, err = r.String(); err != nil {
		return d, err
	}
	if d.Item, err = readSetupItem(r); err != nil {
		return d, err
	}
	b, err := r.Byte()
	if err != nil {
		return d, err
	}
	d.Kind = int(b)
	return d, nil
}

// RunEntry is one command the installer (or uninstaller, for
// UninstallRunEntry records which reuse this same layout) may execute.
//
// Grounded on original_source/src/setup/RunEntry.{hpp,cpp}.
type RunEntry struct {
	Item SetupItem

	Name, Parameters, WorkingDir string
	RunOnceID, StatusMessage     string
	Verb, Description            string

	ShowCmd int
	Wait    int // 0 wait until terminated, 1 no wait, 2 wait until idle

	ShellExec          bool
	SkipIfDoesntExist  bool
	PostInstall        bool
	Unchecked          bool
	SkipIfSilent       bool
	SkipIfNotSilent    bool
	HideWizard         bool
	Bits32             bool
	Bits64             bool
	RunAsOriginalUser  bool
}

func loadRunEntry(r *Reader) (RunEntry, error) {
	v := r.Version()
	var e RunEntry
	var err error

	if !v.AtLeast(1, 3, 21, 0) {
		if _, err = r.UInt32(); err != nil {
			return e, err
		}
	}
	if e.Name, err = r.String(); err != nil {
		return e, err
	}
	if e.Parameters, err = r.String(); err != nil {
		return e, err
	}
	if e.WorkingDir, err = r.String(); err != nil {
		return e, err
	}
	if v.AtLeast(1, 3, 21, 0) {
		if e.RunOnceID, err = r.String(); err != nil {
			return e, err
		}
	}
	if v.AtLeast(2, 0, 2, 0) {
		if e.StatusMessage, err = r.String(); err != nil {
			return e, err
		}
	}
	if v.AtLeast(5, 1, 13, 0) {
		if e.Verb, err = r.String(); err != nil {
			return e, err
		}
	}
	if v.AtLeast(2, 0, 0, 0) {
		if e.Description, err = r.String(); err != nil {
			return e, err
		}
	}

	if e.Item.Condition, err = readSetupCondition(r); err != nil {
		return e, err
	}
	if e.Item.Windows, err = readWindowsVersionRange(r); err != nil {
		return e, err
	}

	if v.AtLeast(1, 3, 21, 0) {
		n, err := r.Int32()
		if err != nil {
			return e, err
		}
		e.ShowCmd = int(n)
	}

	b, err := r.Byte()
	if err != nil {
		return e, err
	}
	e.Wait = int(b)

	n := 1
	switch {
	case v.AtLeast(5, 2, 0, 0):
		n = 10
	case v.AtLeast(5, 1, 10, 0):
		n = 9
	case v.AtLeast(2, 0, 8, 0):
		n = 7
	case v.AtLeast(2, 0, 0, 0):
		n = 6
	case v.AtLeast(1, 3, 21, 0):
		n = 2
	}
	flags, err := r.ReadFlags(n)
	if err != nil {
		return e, err
	}
	e.ShellExec = flags.Has(0)
	if n >= 2 {
		e.SkipIfDoesntExist = flags.Has(1)
	}
	if n >= 6 {
		e.PostInstall = flags.Has(2)
		e.Unchecked = flags.Has(3)
		e.SkipIfSilent = flags.Has(4)
		e.SkipIfNotSilent = flags.Has(5)
	}
	if n >= 7 {
		e.HideWizard = flags.Has(6)
	}
	if n >= 9 {
		e.Bits32 = flags.Has(7)
		e.Bits64 = flags.Has(8)
	}
	if n >= 10 {
		e.RunAsOriginalUser = flags.Has(9)
	}

	return e, nil
}
