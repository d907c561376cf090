package nodeid

import "errors"

// ErrEmpty is returned when an identifier is the empty string.
var ErrEmpty = errors.New("identifier cannot be empty")

// Parse wraps a raw value name into an Address.
func Parse(rawID string) (*Address, error) {
	if rawID == "" {
		return nil, ErrEmpty
	}
	return &Address{raw: rawID}, nil
}

// MustParse is like Parse but panics on malformed input. It is meant for
// identifiers that are compile-time constants.
func MustParse(rawID string) *Address {
	addr, err := Parse(rawID)
	if err != nil {
		panic(err)
	}
	return addr
}
