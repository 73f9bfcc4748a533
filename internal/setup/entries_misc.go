package setup

// IconEntry describes one shortcut the installer creates in the Start
// Menu, desktop, or another shell folder.
//
// Not present as a standalone file in the retrieved original source;
// modeled on the common SetupItem-prefixed shape plus spec.md's general
// description of per-kind entry tables (§3).
type IconEntry struct {
	Item SetupItem

	Name, Filename, Parameters string
	WorkingDir                 string
	IconFile                   string
	Comment                    string
	AppUserModelID             string

	IconIndex int
	ShowCmd   int
	CloseOnExit int // 0 no setting, 1 yes, 2 no

	HotKey uint16

	NeverUninstall  bool
	CreateOnlyIfFileExists bool
	UseAppPaths     bool
	ExcludeFromShowInNewInstall bool
	FolderShortcut  bool
	PreventPinning  bool
	RunMinimized    bool
	RunMaximized    bool
}

func loadIconEntry(r *Reader) (IconEntry, error) {
	v := r.Version()
	var e IconEntry
	var err error

	if !v.AtLeast(1, 3, 21, 0) {
		if _, err = r.UInt32(); err != nil {
			return e, err
		}
	}
	if e.Name, err = r.String(); err != nil {
		return e, err
	}
	if e.Filename, err = r.String(); err != nil {
		return e, err
	}
	if e.Parameters, err = r.String(); err != nil {
		return e, err
	}
	if e.WorkingDir, err = r.String(); err != nil {
		return e, err
	}
	if e.IconFile, err = r.String(); err != nil {
		return e, err
	}
	if v.AtLeast(2, 0, 0, 0) {
		if e.Comment, err = r.String(); err != nil {
			return e, err
		}
	}
	if v.AtLeast(5, 3, 5, 0) {
		if e.AppUserModelID, err = r.String(); err != nil {
			return e, err
		}
	}

	if e.Item, err = readSetupItem(r); err != nil {
		return e, err
	}

	if n, err := r.Int32(); err != nil {
		return e, err
	} else {
		e.IconIndex = int(n)
	}

	if v.AtLeast(1, 3, 21, 0) {
		n, err := r.Int32()
		if err != nil {
			return e, err
		}
		e.ShowCmd = int(n)
	}
	if v.AtLeast(1, 3, 24, 0) {
		hk, err := r.UInt16()
		if err != nil {
			return e, err
		}
		e.HotKey = hk
	}

	flagCount := 2
	switch {
	case v.AtLeast(5, 3, 0, 0):
		flagCount = 6
	case v.AtLeast(2, 0, 7, 0):
		flagCount = 3
	}
	flags, err := r.ReadFlags(flagCount)
	if err != nil {
		return e, err
	}
	e.NeverUninstall = flags.Has(0)
	e.CreateOnlyIfFileExists = flags.Has(1)
	if flagCount >= 3 {
		e.UseAppPaths = flags.Has(2)
	}
	if flagCount >= 6 {
		e.FolderShortcut = flags.Has(3)
		e.RunMinimized = flags.Has(4)
		e.RunMaximized = flags.Has(5)
	}

	return e, nil
}

// IniEntry describes one key/value write performed against a .ini file.
//
// Not present as a standalone file in the retrieved original source;
// modeled after the same SetupItem-prefixed shape shared by every other
// action-entry kind.
type IniEntry struct {
	Item SetupItem

	Filename, Section, Key, Value string

	CreateKeyIfDoesntExist bool
	UninsDeleteEntry       bool
	UninsDeleteEntireSection bool
	UninsDeleteSectionIfEmpty bool
	HasValue bool
}

func loadIniEntry(r *Reader) (IniEntry, error) {
	v := r.Version()
	var e IniEntry
	var err error

	if !v.AtLeast(1, 3, 21, 0) {
		if _, err = r.UInt32(); err != nil {
			return e, err
		}
	}
	if e.Filename, err = r.String(); err != nil {
		return e, err
	}
	if e.Section, err = r.String(); err != nil {
		return e, err
	}
	if e.Key, err = r.String(); err != nil {
		return e, err
	}
	if e.Value, err = r.String(); err != nil {
		return e, err
	}

	if e.Item, err = readSetupItem(r); err != nil {
		return e, err
	}

	flags, err := r.ReadFlags(4)
	if err != nil {
		return e, err
	}
	e.CreateKeyIfDoesntExist = flags.Has(0)
	e.UninsDeleteEntry = flags.Has(1)
	e.UninsDeleteEntireSection = flags.Has(2)
	e.UninsDeleteSectionIfEmpty = flags.Has(3)
	e.HasValue = e.Value != ""

	return e, nil
}

// RegistryRootKey identifies the hive a RegistryEntry operates under.
type RegistryRootKey uint32

const (
	RegistryRootClassesRoot RegistryRootKey = iota
	RegistryRootCurrentUser
	RegistryRootLocalMachine
	RegistryRootUsers
	RegistryRootPerformanceData
	RegistryRootCurrentConfig
	RegistryRootDynData
)

// RegistryEntry describes one registry key or value the installer writes
// or deletes.
//
// Not present as a standalone file in the retrieved original source;
// modeled after the shared SetupItem-prefixed shape, with field names
// matching spec.md's general per-kind entry description.
type RegistryEntry struct {
	Item SetupItem

	RootKey  RegistryRootKey
	Subkey   string
	ValueName string
	ValueData string

	Permission int

	Kind int // value-kind enum: none, string, expandsz, multisz, dword, binary, ...

	CreateValueIfDoesntExist bool
	UninsDeleteValue         bool
	UninsClearValue          bool
	UninsDeleteEntireKey     bool
	UninsDeleteEntireKeyIfEmpty bool
	PreserveStringType       bool
	DeleteKey                bool
	DeleteValue              bool
	NoError                  bool
	DontCreateKey            bool
	Bits32                   bool
	Bits64                   bool
}

func loadRegistryEntry(r *Reader) (RegistryEntry, error) {
	v := r.Version()
	var e RegistryEntry
	var err error

	if !v.AtLeast(1, 3, 21, 0) {
		if _, err = r.UInt32(); err != nil {
			return e, err
		}
	}

	if e.Item, err = readSetupItem(r); err != nil {
		return e, err
	}

	rk, err := r.UInt32()
	if err != nil {
		return e, err
	}
	e.RootKey = RegistryRootKey(rk)

	if e.Subkey, err = r.String(); err != nil {
		return e, err
	}
	if v.AtLeast(1, 3, 21, 0) {
		if e.ValueName, err = r.String(); err != nil {
			return e, err
		}
		if e.ValueData, err = r.String(); err != nil {
			return e, err
		}
	}

	if v.AtLeast(4, 1, 0, 0) {
		n, err := r.UInt16()
		if err != nil {
			return e, err
		}
		e.Permission = int(int16(n))
	} else {
		e.Permission = -1
	}

	b, err := r.Byte()
	if err != nil {
		return e, err
	}
	e.Kind = int(b)

	flagCount := 5
	switch {
	case v.AtLeast(5, 1, 0, 0):
		flagCount = 11
	case v.AtLeast(2, 0, 5, 0):
		flagCount = 8
	}
	flags, err := r.ReadFlags(flagCount)
	if err != nil {
		return e, err
	}
	e.CreateValueIfDoesntExist = flags.Has(0)
	e.UninsDeleteValue = flags.Has(1)
	e.UninsClearValue = flags.Has(2)
	e.UninsDeleteEntireKey = flags.Has(3)
	e.UninsDeleteEntireKeyIfEmpty = flags.Has(4)
	if flagCount >= 8 {
		e.PreserveStringType = flags.Has(5)
		e.DeleteKey = flags.Has(6)
		e.DeleteValue = flags.Has(7)
	}
	if flagCount >= 11 {
		e.NoError = flags.Has(8)
		e.DontCreateKey = flags.Has(9)
		e.Bits32 = false
		e.Bits64 = flags.Has(10)
	}

	return e, nil
}

// CustomMessageEntry is one language-tagged override of a built-in wizard
// string, keyed by name and the owning LanguageEntry's index (-1 for the
// "default/any language" slot).
//
// Not present as a standalone file in the retrieved original source;
// modeled after spec.md's per-kind entry table description.
type CustomMessageEntry struct {
	Name     string
	Value    string
	Language int
}

func loadCustomMessageEntry(r *Reader) (CustomMessageEntry, error) {
	var e CustomMessageEntry
	var err error
	if e.Name, err = r.AnsiString(); err != nil {
		return e, err
	}
	if e.Value, err = r.String(); err != nil {
		return e, err
	}
	n, err := r.Int32()
	if err != nil {
		return e, err
	}
	e.Language = int(n)
	return e, nil
}
