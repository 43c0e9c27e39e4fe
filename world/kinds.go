package world

import "fmt"

// Action is a set of behaviours a creature kind may perform.
type Action uint8

const (
	ActEat Action = 1 << iota
	ActProcreate
	ActAttack
	ActMove
)

// Has checks if the set contains an action.
func (a Action) Has(other Action) bool {
	return a&other != 0
}

func (a Action) String() string {
	switch a {
	case 0:
		return "idle"
	case ActEat:
		return "eat"
	case ActProcreate:
		return "procreate"
	case ActAttack:
		return "attack"
	case ActMove:
		return "move"
	}
	return fmt.Sprintf("actions(%#x)", uint8(a))
}

// Kind identifies a creature species family. The set is closed.
type Kind uint8

const (
	KindWorm Kind = iota
	KindDecoy
	numKinds
)

// KindInfo is the capability table entry for a kind.
type KindInfo struct {
	Name    string
	Actions Action
}

var kinds = [numKinds]KindInfo{
	KindWorm:  {Name: "worm", Actions: ActEat | ActProcreate | ActAttack | ActMove},
	KindDecoy: {Name: "decoy"},
}

// Info returns the capability table entry for k.
func (k Kind) Info() KindInfo {
	if k >= numKinds {
		panic(fmt.Sprintf("world: unknown kind %d", k))
	}
	return kinds[k]
}

// Can reports whether creatures of kind k perform action a.
func (k Kind) Can(a Action) bool {
	return k.Info().Actions.Has(a)
}

func (k Kind) String() string {
	if k >= numKinds {
		return fmt.Sprintf("kind(%d)", k)
	}
	return kinds[k].Name
}

// ParseKind resolves a kind by name.
func ParseKind(name string) (Kind, error) {
	for k := Kind(0); k < numKinds; k++ {
		if kinds[k].Name == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("world: unknown kind %q", name)
}
