package command

import (
	"fmt"
	"reflect"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Requirable is a physical subsystem a command can claim exclusively, such
// as a drivetrain or an arm. Equality is identity: implementations must be
// comparable, and in practice are pointer types.
type Requirable interface {
	Name() string
}

// Requirements is an immutable, duplicate-free set of Requirables. The zero
// value is the empty set.
type Requirements struct {
	items []Requirable
	index sets.Set[Requirable]
}

// NewRequirements freezes items into a set. Duplicates collapse and nil
// entries are dropped; the first-occurrence order is kept for display. An
// item whose type is not comparable fails with ErrUncomparableRequirement.
func NewRequirements(items ...Requirable) (Requirements, error) {
	return RequirementsFrom(items)
}

// RequirementsFrom is NewRequirements for an existing slice. The slice is
// copied and may be reused by the caller.
func RequirementsFrom(items []Requirable) (Requirements, error) {
	if len(items) == 0 {
		return Requirements{}, nil
	}

	r := Requirements{
		items: make([]Requirable, 0, len(items)),
		index: sets.New[Requirable](),
	}
	for _, it := range items {
		if it == nil {
			continue
		}
		if !isComparable(it) {
			return Requirements{}, fmt.Errorf("%w: %T", ErrUncomparableRequirement, it)
		}
		if r.index.Has(it) {
			continue
		}
		r.index.Insert(it)
		r.items = append(r.items, it)
	}
	return r, nil
}

func isComparable(req Requirable) bool {
	return reflect.TypeOf(req).Comparable()
}

// Len returns the number of distinct requirables.
func (r Requirements) Len() int {
	return len(r.items)
}

// Has reports whether req is in the set.
func (r Requirements) Has(req Requirable) bool {
	if req == nil || !isComparable(req) {
		return false
	}
	return r.index.Has(req)
}

// Items returns a copy of the members in first-occurrence order.
func (r Requirements) Items() []Requirable {
	out := make([]Requirable, len(r.items))
	copy(out, r.items)
	return out
}

// Names returns the member names in first-occurrence order.
func (r Requirements) Names() []string {
	names := make([]string, 0, len(r.items))
	for _, it := range r.items {
		names = append(names, it.Name())
	}
	return names
}

// Intersects reports whether the two sets share at least one member.
func (r Requirements) Intersects(other Requirements) bool {
	small, large := r, other
	if small.Len() > large.Len() {
		small, large = large, small
	}
	for _, it := range small.items {
		if large.index.Has(it) {
			return true
		}
	}
	return false
}

func (r Requirements) String() string {
	return "[" + strings.Join(r.Names(), ", ") + "]"
}
