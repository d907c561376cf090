package nodeid

// String returns the raw identifier the Address was parsed from.
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	return a.raw
}

// Key returns the map key of the address. It is the raw identifier, kept as
// a separate method so callers do not depend on the textual format.
func (a *Address) Key() string {
	return a.String()
}

// Equal checks for equality between two Address pointers.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.raw == other.raw
}
