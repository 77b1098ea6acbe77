package scratch

import "os"

const (
	defaultNameLength      = 16
	defaultNameAlphabet    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_"
	defaultMaxNameAttempts = int64(1) << 32

	defaultDirMode  = os.FileMode(0o700)
	defaultFileMode = os.FileMode(0o700)
)

// Options modifies the behavior of scratch file and directory constructors.
// Passing nil selects all defaults.
type Options struct {
	// NameLength is the length of generated random names. Defaults to 16.
	NameLength int

	// NameAlphabet is the set of characters random names are drawn from.
	// Defaults to ASCII letters, digits and underscore.
	NameAlphabet string

	// MaxNameAttempts bounds how many candidate names are tried before the
	// search gives up with ErrNameExhausted. Defaults to 2^32.
	MaxNameAttempts int64

	// DirMode is the permission mode applied to directories created by this
	// package, including intermediate ancestors. Defaults to 0o700.
	DirMode os.FileMode

	// FileMode is the permission mode applied to created files. Defaults to
	// 0o700 to match the directory hardening; set 0o600 for conventional
	// non-executable scratch files.
	FileMode os.FileMode

	osInterfaceOverride osInterface
}

func optionsOrDefault(o *Options) *Options {
	if o == nil {
		return &Options{}
	}

	return o
}

func (o *Options) nameLength() int {
	if o.NameLength == 0 {
		return defaultNameLength
	}

	return o.NameLength
}

func (o *Options) nameAlphabet() string {
	if o.NameAlphabet == "" {
		return defaultNameAlphabet
	}

	return o.NameAlphabet
}

func (o *Options) maxNameAttempts() int64 {
	if o.MaxNameAttempts == 0 {
		return defaultMaxNameAttempts
	}

	return o.MaxNameAttempts
}

func (o *Options) dirMode() os.FileMode {
	if o.DirMode == 0 {
		return defaultDirMode
	}

	return o.DirMode
}

func (o *Options) fileMode() os.FileMode {
	if o.FileMode == 0 {
		return defaultFileMode
	}

	return o.FileMode
}

func (o *Options) osi() osInterface {
	if o.osInterfaceOverride != nil {
		return o.osInterfaceOverride
	}

	return realOS{}
}
