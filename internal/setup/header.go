package setup

import "innoextract/internal/checksum"

// CompressionMethod identifies which algorithm compresses the setup header
// stream and file-location chunk payloads.
type CompressionMethod int

const (
	CompressionUnknown CompressionMethod = iota
	CompressionStored
	CompressionZlib
	CompressionBZip2
	CompressionLZMA1
	CompressionLZMA2
)

// PrivilegeLevel mirrors SetupHeader's PrivilegesRequired field.
type PrivilegeLevel int

const (
	NoPrivileges PrivilegeLevel = iota
	PowerUserPrivileges
	AdminPrivileges
	LowestPrivileges
)

// TriState models Inno's "Auto/No/Yes" (and "UILanguage/LocaleLanguage")
// three-way enum fields.
type TriState int

const (
	TriAuto TriState = iota
	TriNo
	TriYes
)

// Architecture is a bitset of CPU architectures an installer may target.
type Architecture uint8

const (
	ArchX86 Architecture = 1 << iota
	ArchAmd64
	ArchIA64
)

const archAll = ArchX86 | ArchAmd64 | ArchIA64

// Header is the decoded SetupHeader record: global installer metadata plus
// the entry counts that drive how many of each subsequent record kind
// follow it in the header stream.
//
// Grounded field-for-field on original_source/src/setup/SetupHeader.cpp.
type Header struct {
	AppName, AppVerName, AppID                       string
	AppCopyright, AppPublisher, AppPublisherURL       string
	AppSupportPhone, AppSupportURL, AppUpdatesURL     string
	AppVersion                                        string
	DefaultDirName, DefaultGroupName                  string
	UninstallIconName                                 string
	BaseFilename                                      string
	LicenseText, InfoBeforeText, InfoAfterText         string
	UninstallFilesDir, UninstallDisplayName            string
	UninstallDisplayIcon, AppMutex                     string
	DefaultUserInfoName, DefaultUserInfoOrg            string
	DefaultUserInfoSerial                              string
	CompiledCodeText                                   []byte
	AppReadmeFile, AppContact, AppComments             string
	AppModifyPath                                      string
	CreateUninstallRegKey                              string
	Uninstallable                                      string
	SignedUninstallerSignature                         []byte

	LeadBytes uint32 // bitmask of DBCS lead bytes, legacy non-Unicode only

	NumLanguageEntries, NumCustomMessageEntries     int
	NumPermissionEntries                            int
	NumTypeEntries, NumComponentEntries, NumTaskEntries int
	NumDirectoryEntries, NumFileEntries              int
	NumFileLocationEntries, NumIconEntries           int
	NumIniEntries, NumRegistryEntries                int
	NumDeleteEntries, NumUninstallDeleteEntries      int
	NumRunEntries, NumUninstallRunEntries            int

	MinVersion, OnlyBelowVersion WindowsVersionRange

	BackColor, BackColor2                uint32
	WizardImageBackColor                 uint32
	WizardSmallImageBackColor            uint32

	Password         checksum.Checksum
	PasswordSalt     [8]byte

	ExtraDiskSpaceRequired int64
	SlicesPerDisk          int

	InstallMode             int // 0 normal, 1 silent, 2 very silent
	UninstallLogMode        int // 0 append, 1 new, 2 overwrite
	UninstallStyle          int // 0 classic, 1 modern
	DirExistsWarning        TriState
	PrivilegesRequired      PrivilegeLevel
	ShowLanguageDialog      TriState
	LanguageDetectionMethod int // 0 UI, 1 locale, 2 none
	CompressMethod          CompressionMethod
	ArchitecturesAllowed              Architecture
	ArchitecturesInstallIn64BitMode   Architecture
	SignedUninstallerOrigSize         uint32
	SignedUninstallerHdrChecksum      uint32
	DisableDirPage, DisableProgramGroupPage TriState
	UninstallDisplaySize              uint32

	// Flags, one field per SetupHeader option bit actually consumed by
	// the extraction orchestrator or surfaced in diagnostics. Flags that
	// only affect wizard-page UI rendering (not file layout, not
	// extraction behavior) are intentionally not modeled as separate
	// fields; script-UX concerns are this repo's explicit Non-goal.
	DisableStartupPrompt    bool
	CreateAppDir            bool
	AllowNoIcons            bool
	AlwaysRestart           bool
	AlwaysUsePersonalGroup  bool
	EncryptionUsed          bool
	SetupLogging            bool
	SignedUninstaller       bool
	DisableWelcomePage      bool
	ChangesAssociations     bool
	ChangesEnvironment      bool
	RestartIfNeededByRun    bool
	AllowCancelDuringInstall bool
	BzipUsed                bool
}

// Passwordless reports whether the installer carries no password digest, in
// which case extraction needs no password. HeaderLoad clears the digest when
// the header's Password option is off.
func (h *Header) Passwordless() bool {
	return h.Password.Type == checksum.None
}

// HeaderLoad decodes a SetupHeader from r, following SetupHeader.cpp's
// version-gated field sequence.
func HeaderLoad(r *Reader) (*Header, error) {
	h := &Header{}
	v := r.Version()

	if !v.AtLeast(1, 3, 21, 0) {
		if _, err := r.UInt32(); err != nil { // legacy uncompressed-size prefix
			return nil, err
		}
	}

	var err error
	if h.AppName, err = r.String(); err != nil {
		return nil, err
	}
	if h.AppVerName, err = r.String(); err != nil {
		return nil, err
	}
	if v.AtLeast(1, 3, 21, 0) {
		if h.AppID, err = r.String(); err != nil {
			return nil, err
		}
	}
	if h.AppCopyright, err = r.String(); err != nil {
		return nil, err
	}
	if v.AtLeast(1, 3, 21, 0) {
		if h.AppPublisher, err = r.String(); err != nil {
			return nil, err
		}
		if h.AppPublisherURL, err = r.String(); err != nil {
			return nil, err
		}
	}
	if v.AtLeast(5, 1, 13, 0) {
		if h.AppSupportPhone, err = r.String(); err != nil {
			return nil, err
		}
	}
	if v.AtLeast(1, 3, 21, 0) {
		if h.AppSupportURL, err = r.String(); err != nil {
			return nil, err
		}
		if h.AppUpdatesURL, err = r.String(); err != nil {
			return nil, err
		}
		if h.AppVersion, err = r.String(); err != nil {
			return nil, err
		}
	}
	if h.DefaultDirName, err = r.String(); err != nil {
		return nil, err
	}
	if h.DefaultGroupName, err = r.String(); err != nil {
		return nil, err
	}
	if !v.AtLeast(3, 0, 0, 0) {
		if h.UninstallIconName, err = r.AnsiString(); err != nil {
			return nil, err
		}
	}
	if h.BaseFilename, err = r.String(); err != nil {
		return nil, err
	}

	var legacyLicenseSize, legacyInfoBeforeSize, legacyInfoAfterSize int32
	if v.AtLeast(1, 3, 21, 0) {
		if !v.AtLeast(5, 2, 5, 0) {
			if h.LicenseText, err = r.AnsiString(); err != nil {
				return nil, err
			}
			if h.InfoBeforeText, err = r.AnsiString(); err != nil {
				return nil, err
			}
			if h.InfoAfterText, err = r.AnsiString(); err != nil {
				return nil, err
			}
		}
		if h.UninstallFilesDir, err = r.String(); err != nil {
			return nil, err
		}
		if h.UninstallDisplayName, err = r.String(); err != nil {
			return nil, err
		}
		if h.UninstallDisplayIcon, err = r.String(); err != nil {
			return nil, err
		}
		if h.AppMutex, err = r.String(); err != nil {
			return nil, err
		}
	} else {
		legacyLicenseSize, legacyInfoBeforeSize, legacyInfoAfterSize = 0, 0, 0
	}
	if v.AtLeast(3, 0, 0, 0) {
		if h.DefaultUserInfoName, err = r.String(); err != nil {
			return nil, err
		}
		if h.DefaultUserInfoOrg, err = r.String(); err != nil {
			return nil, err
		}
	}
	if v.AtLeast(3, 0, 6, 1) {
		if h.DefaultUserInfoSerial, err = r.String(); err != nil {
			return nil, err
		}
		if !v.AtLeast(5, 2, 5, 0) {
			if h.CompiledCodeText, err = r.Bytes(); err != nil {
				return nil, err
			}
		}
	}
	if v.AtLeast(4, 2, 4, 0) {
		if h.AppReadmeFile, err = r.String(); err != nil {
			return nil, err
		}
		if h.AppContact, err = r.String(); err != nil {
			return nil, err
		}
		if h.AppComments, err = r.String(); err != nil {
			return nil, err
		}
		if h.AppModifyPath, err = r.String(); err != nil {
			return nil, err
		}
	}
	if v.AtLeast(5, 3, 8, 0) {
		if h.CreateUninstallRegKey, err = r.String(); err != nil {
			return nil, err
		}
	}
	if v.AtLeast(5, 3, 10, 0) {
		if h.Uninstallable, err = r.String(); err != nil {
			return nil, err
		}
	}
	if v.AtLeast(5, 2, 5, 0) {
		if h.LicenseText, err = r.AnsiString(); err != nil {
			return nil, err
		}
		if h.InfoBeforeText, err = r.AnsiString(); err != nil {
			return nil, err
		}
		if h.InfoAfterText, err = r.AnsiString(); err != nil {
			return nil, err
		}
	}
	if v.AtLeast(5, 2, 1, 0) && !v.AtLeast(5, 3, 10, 0) {
		if h.SignedUninstallerSignature, err = r.Bytes(); err != nil {
			return nil, err
		}
	}
	if v.AtLeast(5, 2, 5, 0) {
		if h.CompiledCodeText, err = r.Bytes(); err != nil {
			return nil, err
		}
	}

	if v.AtLeast(2, 0, 6, 0) && !v.Unicode {
		if h.LeadBytes, err = r.UInt32(); err != nil {
			return nil, err
		}
	}

	if h.NumLanguageEntries, err = readCount(r, v, 4, 0, 0, 0, 2, 0, 1, 0, 1); err != nil {
		return nil, err
	}
	if v.AtLeast(4, 2, 1, 0) {
		n, err := r.UInt32()
		if err != nil {
			return nil, err
		}
		h.NumCustomMessageEntries = int(n)
	}
	if v.AtLeast(4, 1, 0, 0) {
		n, err := r.UInt32()
		if err != nil {
			return nil, err
		}
		h.NumPermissionEntries = int(n)
	}
	if v.AtLeast(2, 0, 0, 0) {
		if h.NumTypeEntries, err = readUint32Count(r); err != nil {
			return nil, err
		}
		if h.NumComponentEntries, err = readUint32Count(r); err != nil {
			return nil, err
		}
		if h.NumTaskEntries, err = readUint32Count(r); err != nil {
			return nil, err
		}
	}
	if h.NumDirectoryEntries, err = readUint32Count(r); err != nil {
		return nil, err
	}
	if h.NumFileEntries, err = readUint32Count(r); err != nil {
		return nil, err
	}
	if h.NumFileLocationEntries, err = readUint32Count(r); err != nil {
		return nil, err
	}
	if h.NumIconEntries, err = readUint32Count(r); err != nil {
		return nil, err
	}
	if h.NumIniEntries, err = readUint32Count(r); err != nil {
		return nil, err
	}
	if h.NumRegistryEntries, err = readUint32Count(r); err != nil {
		return nil, err
	}
	if h.NumDeleteEntries, err = readUint32Count(r); err != nil {
		return nil, err
	}
	if h.NumUninstallDeleteEntries, err = readUint32Count(r); err != nil {
		return nil, err
	}
	if h.NumRunEntries, err = readUint32Count(r); err != nil {
		return nil, err
	}
	if h.NumUninstallRunEntries, err = readUint32Count(r); err != nil {
		return nil, err
	}

	if !v.AtLeast(1, 3, 21, 0) {
		ls, err := r.Int32()
		if err != nil {
			return nil, err
		}
		ib, err := r.Int32()
		if err != nil {
			return nil, err
		}
		ia, err := r.Int32()
		if err != nil {
			return nil, err
		}
		legacyLicenseSize, legacyInfoBeforeSize, legacyInfoAfterSize = ls, ib, ia
	}

	if h.MinVersion, err = readWindowsVersionRangeLegacy(r); err != nil {
		return nil, err
	}
	if h.OnlyBelowVersion, err = readWindowsVersionRangeLegacy(r); err != nil {
		return nil, err
	}

	if h.BackColor, err = r.UInt32(); err != nil {
		return nil, err
	}
	if v.AtLeast(1, 3, 21, 0) {
		if h.BackColor2, err = r.UInt32(); err != nil {
			return nil, err
		}
	}
	if h.WizardImageBackColor, err = r.UInt32(); err != nil {
		return nil, err
	}
	if v.AtLeast(2, 0, 0, 0) && !v.AtLeast(5, 0, 4, 0) {
		if h.WizardSmallImageBackColor, err = r.UInt32(); err != nil {
			return nil, err
		}
	}

	if !v.AtLeast(4, 2, 0, 0) {
		crc, err := r.UInt32()
		if err != nil {
			return nil, err
		}
		var b [4]byte
		putLE32(b[:], crc)
		h.Password = checksum.Checksum{Type: checksum.CRC32, Bytes: b[:]}
	} else if !v.AtLeast(5, 3, 9, 0) {
		b := make([]byte, 16)
		if _, err := readFullInto(r, b); err != nil {
			return nil, err
		}
		h.Password = checksum.Checksum{Type: checksum.MD5, Bytes: b}
	} else {
		b := make([]byte, 20)
		if _, err := readFullInto(r, b); err != nil {
			return nil, err
		}
		h.Password = checksum.Checksum{Type: checksum.SHA1, Bytes: b}
	}
	if v.AtLeast(4, 2, 2, 0) {
		if _, err := readFullInto(r, h.PasswordSalt[:]); err != nil {
			return nil, err
		}
	}

	if !v.AtLeast(4, 0, 0, 0) {
		n, err := r.Int32()
		if err != nil {
			return nil, err
		}
		h.ExtraDiskSpaceRequired = int64(n)
		h.SlicesPerDisk = 1
	} else {
		if h.ExtraDiskSpaceRequired, err = r.Int64(); err != nil {
			return nil, err
		}
		n, err := r.UInt32()
		if err != nil {
			return nil, err
		}
		h.SlicesPerDisk = int(n)
		if h.SlicesPerDisk < 1 {
			h.SlicesPerDisk = 1
		}
	}

	if v.AtLeast(2, 0, 0, 0) && !v.AtLeast(5, 0, 0, 0) {
		b, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.InstallMode = int(b)
	}
	if v.AtLeast(1, 3, 21, 0) {
		b, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.UninstallLogMode = int(b)
	}
	if v.AtLeast(2, 0, 0, 0) && !v.AtLeast(5, 0, 0, 0) {
		b, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.UninstallStyle = int(b)
	} else if !v.AtLeast(5, 0, 0, 0) {
		h.UninstallStyle = 0
	} else {
		h.UninstallStyle = 1
	}
	if v.AtLeast(1, 3, 21, 0) {
		b, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.DirExistsWarning = TriState(b)
	}
	if v.AtLeast(3, 0, 0, 0) && !v.AtLeast(3, 0, 3, 0) {
		if _, err := r.Byte(); err != nil { // legacy AutoBoolean restart-computer, read and discarded
			return nil, err
		}
	}
	if v.AtLeast(5, 3, 7, 0) {
		b, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.PrivilegesRequired = PrivilegeLevel(b)
	} else if v.AtLeast(3, 0, 4, 0) {
		b, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.PrivilegesRequired = PrivilegeLevel(b)
	}
	if v.AtLeast(4, 0, 10, 0) {
		b, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.ShowLanguageDialog = TriState(b)
		b2, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.LanguageDetectionMethod = int(b2)
	}
	if v.AtLeast(5, 3, 9, 0) {
		b, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.CompressMethod = compressMethod3(b)
	} else if v.AtLeast(4, 2, 6, 0) {
		b, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.CompressMethod = compressMethod2(b)
	} else if v.AtLeast(4, 2, 5, 0) {
		b, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.CompressMethod = compressMethod1(b)
	} else if v.AtLeast(4, 1, 5, 0) {
		b, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.CompressMethod = compressMethod0(b)
	}
	if v.AtLeast(5, 1, 0, 0) {
		a1, err := r.Byte()
		if err != nil {
			return nil, err
		}
		a2, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.ArchitecturesAllowed = Architecture(a1)
		h.ArchitecturesInstallIn64BitMode = Architecture(a2)
	} else {
		h.ArchitecturesAllowed = archAll
		h.ArchitecturesInstallIn64BitMode = archAll
	}
	if v.AtLeast(5, 2, 1, 0) && !v.AtLeast(5, 3, 10, 0) {
		if h.SignedUninstallerOrigSize, err = r.UInt32(); err != nil {
			return nil, err
		}
		if h.SignedUninstallerHdrChecksum, err = r.UInt32(); err != nil {
			return nil, err
		}
	}
	if v.AtLeast(5, 3, 3, 0) {
		b, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.DisableDirPage = TriState(b)
		b2, err := r.Byte()
		if err != nil {
			return nil, err
		}
		h.DisableProgramGroupPage = TriState(b2)
	}
	if v.AtLeast(5, 3, 6, 0) {
		if h.UninstallDisplaySize, err = r.UInt32(); err != nil {
			return nil, err
		}
	}

	if err := loadHeaderFlags(r, h); err != nil {
		return nil, err
	}

	if !v.AtLeast(1, 3, 21, 0) {
		if legacyLicenseSize > 0 {
			b, err := readN(r, int(legacyLicenseSize))
			if err != nil {
				return nil, err
			}
			h.LicenseText = string(b)
		}
		if legacyInfoBeforeSize > 0 {
			b, err := readN(r, int(legacyInfoBeforeSize))
			if err != nil {
				return nil, err
			}
			h.InfoBeforeText = string(b)
		}
		if legacyInfoAfterSize > 0 {
			b, err := readN(r, int(legacyInfoAfterSize))
			if err != nil {
				return nil, err
			}
			h.InfoAfterText = string(b)
		}
	}

	return h, nil
}

// loadHeaderFlags reads the single-byte-per-flag sequence, in exactly the
// order SetupHeader.cpp's stored_flag_reader adds them, gated the same way.
func loadHeaderFlags(r *Reader, h *Header) error {
	v := r.Version()
	read := func(dst *bool) error {
		b, err := r.Bool()
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
	skip := func() error {
		_, err := r.Bool()
		return err
	}

	if err := read(&h.DisableStartupPrompt); err != nil {
		return err
	}
	if !v.AtLeast(5, 3, 10, 0) {
		if err := skip(); err != nil { // Uninstallable
			return err
		}
	}
	if err := read(&h.CreateAppDir); err != nil {
		return err
	}
	if !v.AtLeast(5, 3, 3, 0) {
		if err := skip(); err != nil { // DisableDirPage (legacy bool form)
			return err
		}
	}
	if !v.AtLeast(1, 3, 21, 0) {
		if err := skip(); err != nil { // DisableDirExistsWarning
			return err
		}
	}
	if !v.AtLeast(5, 3, 3, 0) {
		if err := skip(); err != nil { // DisableProgramGroupPage (legacy bool form)
			return err
		}
	}
	if err := read(&h.AllowNoIcons); err != nil {
		return err
	}
	if !v.AtLeast(3, 0, 0, 0) || v.AtLeast(3, 0, 3, 0) {
		if err := read(&h.AlwaysRestart); err != nil {
			return err
		}
	}
	if !v.AtLeast(1, 3, 21, 0) {
		if err := skip(); err != nil { // BackSolid
			return err
		}
	}
	if err := read(&h.AlwaysUsePersonalGroup); err != nil {
		return err
	}
	for i := 0; i < 4; i++ { // WindowVisible, WindowShowCaption, WindowResizable, WindowStartMaximized
		if err := skip(); err != nil {
			return err
		}
	}
	if err := skip(); err != nil { // EnableDirDoesntExistWarning
		return err
	}
	if !v.AtLeast(4, 1, 2, 0) {
		if err := skip(); err != nil { // DisableAppendDir
			return err
		}
	}
	var hasPassword bool
	if err := read(&hasPassword); err != nil { // Password
		return err
	}
	if !hasPassword {
		h.Password = checksum.Checksum{}
	}
	if err := skip(); err != nil { // AllowRootDirectory
		return err
	}
	if err := skip(); err != nil { // DisableFinishedPage
		return err
	}
	if v.Bits != 16 {
		if !v.AtLeast(3, 0, 4, 0) {
			if err := skip(); err != nil { // AdminPrivilegesRequired
				return err
			}
		}
		if !v.AtLeast(3, 0, 0, 0) {
			if err := skip(); err != nil { // AlwaysCreateUninstallIcon
				return err
			}
		}
		if !v.AtLeast(1, 3, 21, 0) {
			if err := skip(); err != nil { // OverwriteUninstRegEntries
				return err
			}
		}
		if err := read(&h.ChangesAssociations); err != nil {
			return err
		}
	}
	if v.AtLeast(1, 3, 21, 0) {
		if !v.AtLeast(5, 3, 8, 0) {
			if err := skip(); err != nil { // CreateUninstallRegKey
				return err
			}
		}
		for i := 0; i < 4; i++ { // UsePreviousAppDir, BackColorHorizontal, UsePreviousGroup, UpdateUninstallLogAppName
			if err := skip(); err != nil {
				return err
			}
		}
	}
	if v.AtLeast(2, 0, 0, 0) {
		for i := 0; i < 7; i++ {
			// UsePreviousSetupType, DisableReadyMemo, AlwaysShowComponentsList,
			// FlatComponentsList, ShowComponentSizes, UsePreviousTasks, DisableReadyPage
			if err := skip(); err != nil {
				return err
			}
		}
	}
	if v.AtLeast(2, 0, 7, 0) {
		for i := 0; i < 2; i++ { // AlwaysShowDirOnReadyPage, AlwaysShowGroupOnReadyPage
			if err := skip(); err != nil {
				return err
			}
		}
	}
	if v.AtLeast(2, 0, 17, 0) && !v.AtLeast(4, 1, 5, 0) {
		if err := read(&h.BzipUsed); err != nil {
			return err
		}
	}
	if v.AtLeast(2, 0, 18, 0) {
		if err := skip(); err != nil { // AllowUNCPath
			return err
		}
	}
	if v.AtLeast(3, 0, 0, 0) {
		for i := 0; i < 2; i++ { // UserInfoPage, UsePreviousUserInfo
			if err := skip(); err != nil {
				return err
			}
		}
	}
	if v.AtLeast(3, 0, 1, 0) {
		if err := skip(); err != nil { // UninstallRestartComputer
			return err
		}
	}
	if v.AtLeast(3, 0, 3, 0) {
		if err := read(&h.RestartIfNeededByRun); err != nil {
			return err
		}
	}
	if v.AtLeast(3, 0, 6, 1) {
		if err := skip(); err != nil { // ShowTasksTreeLines
			return err
		}
	}
	if v.AtLeast(4, 0, 0, 0) && !v.AtLeast(4, 0, 10, 0) {
		if err := skip(); err != nil { // ShowLanguageDialog (legacy bool form)
			return err
		}
	}
	if v.AtLeast(4, 0, 1, 0) && !v.AtLeast(4, 0, 10, 0) {
		if err := skip(); err != nil { // DetectLanguageUsingLocale
			return err
		}
	}
	if v.AtLeast(4, 0, 9, 0) {
		if err := read(&h.AllowCancelDuringInstall); err != nil {
			return err
		}
	} else {
		h.AllowCancelDuringInstall = true
	}
	if v.AtLeast(4, 1, 3, 0) {
		if err := skip(); err != nil { // WizardImageStretch
			return err
		}
	}
	if v.AtLeast(4, 1, 8, 0) {
		for i := 0; i < 2; i++ { // AppendDefaultDirName, AppendDefaultGroupName
			if err := skip(); err != nil {
				return err
			}
		}
	}
	if v.AtLeast(4, 2, 2, 0) {
		if err := read(&h.EncryptionUsed); err != nil {
			return err
		}
	}
	if v.AtLeast(5, 0, 4, 0) {
		if err := read(&h.ChangesEnvironment); err != nil {
			return err
		}
	}
	if v.AtLeast(5, 1, 7, 0) && !v.Unicode {
		if err := skip(); err != nil { // ShowUndisplayableLanguages
			return err
		}
	}
	if v.AtLeast(5, 1, 13, 0) {
		if err := read(&h.SetupLogging); err != nil {
			return err
		}
	}
	if v.AtLeast(5, 2, 1, 0) {
		if err := read(&h.SignedUninstaller); err != nil {
			return err
		}
	}
	if v.AtLeast(5, 3, 8, 0) {
		if err := skip(); err != nil { // UsePreviousLanguage
			return err
		}
	}
	if v.AtLeast(5, 3, 9, 0) {
		if err := read(&h.DisableWelcomePage); err != nil {
			return err
		}
	}

	if !v.AtLeast(4, 1, 5, 0) {
		if h.BzipUsed {
			h.CompressMethod = CompressionBZip2
		} else {
			h.CompressMethod = CompressionZlib
		}
	}

	return nil
}

func compressMethod0(b byte) CompressionMethod {
	switch b {
	case 0:
		return CompressionZlib
	case 1:
		return CompressionBZip2
	case 2:
		return CompressionLZMA1
	default:
		return CompressionUnknown
	}
}

func compressMethod1(b byte) CompressionMethod {
	switch b {
	case 0:
		return CompressionStored
	case 1:
		return CompressionBZip2
	case 2:
		return CompressionLZMA1
	default:
		return CompressionUnknown
	}
}

func compressMethod2(b byte) CompressionMethod {
	switch b {
	case 0:
		return CompressionStored
	case 1:
		return CompressionZlib
	case 2:
		return CompressionBZip2
	case 3:
		return CompressionLZMA1
	default:
		return CompressionUnknown
	}
}

func compressMethod3(b byte) CompressionMethod {
	switch b {
	case 0:
		return CompressionStored
	case 1:
		return CompressionZlib
	case 2:
		return CompressionBZip2
	case 3:
		return CompressionLZMA1
	case 4:
		return CompressionLZMA2
	default:
		return CompressionUnknown
	}
}

// readCount reads a version-gated entry count: UInt32 from >= gate "a",
// else a fixed implicit value from >= gate "b", else zero. Mirrors the
// three-way numLanguageEntries cascade in SetupHeader::load.
func readCount(r *Reader, v Version, aMaj, aMin, aPat, aRev, bMaj, bMin, bPat, bRev, implicit int) (int, error) {
	if v.AtLeast(aMaj, aMin, aPat, aRev) {
		return readUint32Count(r)
	}
	if v.AtLeast(bMaj, bMin, bPat, bRev) {
		return implicit, nil
	}
	return 0, nil
}

func readUint32Count(r *Reader) (int, error) {
	n, err := r.UInt32()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func readN(r *Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := readFullInto(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readFullInto(r *Reader, buf []byte) (int, error) {
	for i := range buf {
		b, err := r.Byte()
		if err != nil {
			return i, err
		}
		buf[i] = b
	}
	return len(buf), nil
}

func putLE32(b []byte, x uint32) {
	b[0] = byte(x)
	b[1] = byte(x >> 8)
	b[2] = byte(x >> 16)
	b[3] = byte(x >> 24)
}

// readWindowsVersionRangeLegacy reads one WindowsVersion pair the way
// SetupHeader's top-level minVersion/onlyBelowVersion fields are encoded:
// unlike the per-item WindowsVersionRange, these two are each loaded as a
// single flat call (the NT variant is folded into the same InnoVersion
// record in the original rather than read as a second pair), so this
// reuses the common WindowsVersion reader directly.
func readWindowsVersionRangeLegacy(r *Reader) (WindowsVersionRange, error) {
	var wv WindowsVersionRange
	mv, err := readWindowsVersion(r)
	if err != nil {
		return wv, err
	}
	wv.MinVersion = mv
	if r.Version().AtLeast(4, 1, 0, 0) {
		nt, err := readWindowsVersion(r)
		if err != nil {
			return wv, err
		}
		wv.MinVersionNT = nt
	}
	return wv, nil
}
