package nodeid

// Address is the identity of a node. It wraps the raw value name and is
// comparable, so it can be used as a map key directly.
type Address struct {
	raw string
}
