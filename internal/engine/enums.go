package engine

// String backed enums so config files stay human editable.

type Kind string

const (
	KindFlag   Kind = "flag"
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindList   Kind = "list"
)

var AllKinds = []Kind{KindFlag, KindString, KindNumber, KindList}

// Valid reports whether k is one of the recognized kinds.
func (k Kind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// TakesValue is false only for flags, which render as a bare --name.
func (k Kind) TakesValue() bool { return k != KindFlag }
