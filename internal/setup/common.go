package setup

// WindowsVersion is a (major, minor, build, servicePack) Windows version
// tuple as Inno Setup's installer compares them for MinVersion/OnlyBelowVersion
// gating.
type WindowsVersion struct {
	Major, Minor  uint8
	Build         uint16
	ServicePack   uint16 // major<<8 | minor, 0 if unspecified
}

// WindowsVersionRange is the embedded record every SetupHeader and
// SetupItem-prefixed entry carries: the minimum Windows version required to
// run/install this item, and (Inno Setup >= 4.0.0) an exclusive upper bound.
// NT carries a parallel pair of fields because Inno Setup distinguishes
// Windows 9x from Windows NT family version numbering.
//
// Grounded on original_source's windows.hpp InnoVersion range handling,
// supplemented per SPEC_FULL (not detailed in spec.md's own component
// breakdown).
type WindowsVersionRange struct {
	MinVersion       WindowsVersion
	MinVersionNT     WindowsVersion
	OnlyBelowVersion WindowsVersion
	OnlyBelowVersionNT WindowsVersion
}

func readWindowsVersion(r *Reader) (WindowsVersion, error) {
	packed, err := r.UInt32()
	if err != nil {
		return WindowsVersion{}, err
	}
	build, err := r.UInt16()
	if err != nil {
		return WindowsVersion{}, err
	}
	sp, err := r.UInt16()
	if err != nil {
		return WindowsVersion{}, err
	}
	return WindowsVersion{
		Major:       uint8(packed >> 24),
		Minor:       uint8(packed >> 16),
		Build:       build,
		ServicePack: sp,
	}, nil
}

// readWindowsVersionRange decodes a WindowsVersionRange, gating the
// NT-specific and upper-bound fields on the stream version the way
// SetupHeader.cpp's LoadVersion helper does.
func readWindowsVersionRange(r *Reader) (WindowsVersionRange, error) {
	var wv WindowsVersionRange
	var err error
	if wv.MinVersion, err = readWindowsVersion(r); err != nil {
		return wv, err
	}
	if r.Version().AtLeast(4, 0, 0, 0) {
		if wv.OnlyBelowVersion, err = readWindowsVersion(r); err != nil {
			return wv, err
		}
	}
	if r.Version().AtLeast(4, 1, 0, 0) {
		if wv.MinVersionNT, err = readWindowsVersion(r); err != nil {
			return wv, err
		}
		if r.Version().AtLeast(4, 0, 0, 0) {
			if wv.OnlyBelowVersionNT, err = readWindowsVersion(r); err != nil {
				return wv, err
			}
		}
	}
	return wv, nil
}

// SetupCondition holds the free-form Pascal Scripting expression strings
// that select whether an entry participates in a given install run:
// Components/Tasks/Languages membership expressions plus a general Check
// expression. This package only decodes and stores them as opaque text —
// evaluating them would require hosting Inno Setup's Pascal scripting
// engine, an explicit Non-goal.
//
// Grounded on original_source/src/setup/SetupCondition.{hpp,cpp}.
type SetupCondition struct {
	Components string
	Tasks      string
	Languages  string
	Check      string
}

func readSetupCondition(r *Reader) (SetupCondition, error) {
	v := r.Version()
	var c SetupCondition
	var err error
	if v.AtLeast(1, 3, 27, 0) { // original: "version > 1.3.26"
		if c.Components, err = r.String(); err != nil {
			return c, err
		}
		if c.Tasks, err = r.String(); err != nil {
			return c, err
		}
	}
	if v.AtLeast(4, 0, 1, 0) {
		if c.Languages, err = r.String(); err != nil {
			return c, err
		}
	}
	if v.AtLeast(3, 0, 8, 0) {
		if c.Check, err = r.String(); err != nil {
			return c, err
		}
	}
	return c, nil
}

// SetupTasks holds the BeforeInstall/AfterInstall script hook expressions
// some entry kinds (file entries, icon entries) carry in addition to their
// SetupCondition. Not part of the common SetupItem prefix: only entries
// whose action can run Pascal script callbacks load this.
//
// Grounded on original_source/src/setup/SetupCondition.{hpp,cpp}
// (SetupTasks::load).
type SetupTasks struct {
	AfterInstall  string
	BeforeInstall string
}

func readSetupTasks(r *Reader) (SetupTasks, error) {
	var t SetupTasks
	if !r.Version().AtLeast(4, 1, 0, 0) {
		return t, nil
	}
	var err error
	if t.AfterInstall, err = r.String(); err != nil {
		return t, err
	}
	if t.BeforeInstall, err = r.String(); err != nil {
		return t, err
	}
	return t, nil
}

// SetupItem is the field prefix most versioned entry kinds carry: the
// selection/condition expressions and the Windows version gate, loaded as
// loadConditionData() followed by loadVersionData() in the original.
type SetupItem struct {
	Condition SetupCondition
	Windows   WindowsVersionRange
}

func readSetupItem(r *Reader) (SetupItem, error) {
	var it SetupItem
	var err error
	if it.Condition, err = readSetupCondition(r); err != nil {
		return it, err
	}
	if it.Windows, err = readWindowsVersionRange(r); err != nil {
		return it, err
	}
	return it, nil
}
