package localsession

import "fmt"

// Symbol stands for one output of a compute node.
type Symbol struct {
	Node  string
	Op    string
	Index int
	Args  []any
}

func (s *Symbol) String() string {
	return fmt.Sprintf("%s:%d", s.Node, s.Index)
}

// DependsOn reports whether v is target or was computed from it. target must
// be comparable.
func DependsOn(v, target any) bool {
	seen := make(map[*Symbol]bool)
	var walk func(any) bool
	walk = func(x any) bool {
		if x == target {
			return true
		}
		sym, ok := x.(*Symbol)
		if !ok || seen[sym] {
			return false
		}
		seen[sym] = true
		for _, arg := range sym.Args {
			if walk(arg) {
				return true
			}
		}
		return false
	}
	return walk(v)
}
