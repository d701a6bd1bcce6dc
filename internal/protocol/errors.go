package protocol

import "errors"

const (
	ErrBadEnvelope   = "E_BAD_ENVELOPE"
	ErrVersion       = "E_VERSION"
	ErrUnknownFamily = "E_UNKNOWN_FAMILY"
	ErrCorrupt       = "E_CORRUPT"
)

var knownCodes = map[string]struct{}{
	ErrBadEnvelope:   {},
	ErrVersion:       {},
	ErrUnknownFamily: {},
	ErrCorrupt:       {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// CodeOf returns the code of a protocol error anywhere in err's chain.
func CodeOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
