package gridfile

import "errors"

var (
	ErrInvalidMagic       = errors.New("invalid UTG magic")
	ErrUnsupportedVersion = errors.New("unsupported UTG major version")
	ErrCorruptFile        = errors.New("corrupt UTG file")
)
