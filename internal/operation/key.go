// Package operation defines the identity under which every piece of learned
// dispatch state (thresholds, samples, counters) is stored.
package operation

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key identifies one tunable dispatch target as a (domain, type, operation)
// triple, e.g. ("data-structures", "list", "map"). Keys are comparable and
// are used directly as map keys.
type Key struct {
	Domain    string
	Type      string
	Operation string
}

// New builds a Key from its three components.
func New(domain, typ, op string) Key {
	return Key{Domain: domain, Type: typ, Operation: op}
}

// String renders the key as "domain/type/operation".
func (k Key) String() string {
	var b strings.Builder
	b.Grow(len(k.Domain) + len(k.Type) + len(k.Operation) + 2)
	b.WriteString(k.Domain)
	b.WriteByte('/')
	b.WriteString(k.Type)
	b.WriteByte('/')
	b.WriteString(k.Operation)
	return b.String()
}

// IsZero reports whether no component of the key is set.
func (k Key) IsZero() bool {
	return k.Domain == "" && k.Type == "" && k.Operation == ""
}

// Hash returns a stable 64-bit hash of the key, used to pick a registry shard.
func (k Key) Hash() uint64 {
	return xxhash.Sum64String(k.String())
}

// Parse reads a key in the "domain/type/operation" form produced by String.
// Every component must be non-empty.
func Parse(s string) (Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Key{}, fmt.Errorf("operation key %q: want domain/type/operation", s)
	}
	return New(parts[0], parts[1], parts[2]), nil
}
