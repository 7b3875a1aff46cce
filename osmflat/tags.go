package osmflat

import "bytes"

// Tags is a lazy, restartable view over one entity's tag range (spec.md
// §4.H). It never materializes an intermediate slice of key/value pairs —
// Iter, Find, FindBy and Has all walk the underlying TagIndex slice
// directly.
type Tags struct {
	idx     []uint64 // slice of the TagIndex column for this entity's range
	tags    []Tag
	strings []byte
}

// Len reports how many tag pairs this range holds.
func (t Tags) Len() int { return len(t.idx) }

// Iter calls fn(key, value) for every tag pair in arrival order, where key
// and value are the exact NUL-terminated bytes starting at their string
// pool offset (not including the NUL). Stops early if fn returns false.
func (t Tags) Iter(fn func(key, value []byte) bool) {
	for _, pos := range t.idx {
		tag := t.tags[pos]
		k := cstr(t.strings, tag.KeyOffset)
		v := cstr(t.strings, tag.ValOffset)
		if !fn(k, v) {
			return
		}
	}
}

// Reverse is Iter in reverse arrival order (SUPPLEMENTED FEATURES #5 — the
// Rust original's TagsIter is a DoubleEndedIterator; Go has no equivalent
// trait, so this is exposed as an explicit method instead).
func (t Tags) Reverse(fn func(key, value []byte) bool) {
	for i := len(t.idx) - 1; i >= 0; i-- {
		tag := t.tags[t.idx[i]]
		k := cstr(t.strings, tag.KeyOffset)
		v := cstr(t.strings, tag.ValOffset)
		if !fn(k, v) {
			return
		}
	}
}

// FindBy returns the first value whose (key-suffix, value-suffix) satisfy
// predicate, where keyBlock/valueBlock are the FULL remaining string-pool
// suffix starting at each offset — not trimmed to the string's own length.
// predicate is responsible for detecting the terminating NUL itself (e.g.
// via bytes.HasPrefix(keyBlock, []byte("name\x00"))), per spec.md §4.H
// rationale: this lets callers match fixed literals without computing any
// length up front.
func (t Tags) FindBy(predicate func(keyBlock, valueBlock []byte) bool) ([]byte, bool) {
	for _, pos := range t.idx {
		tag := t.tags[pos]
		keyBlock := t.strings[tag.KeyOffset:]
		valueBlock := t.strings[tag.ValOffset:]
		if predicate(keyBlock, valueBlock) {
			return cstr(t.strings, tag.ValOffset), true
		}
	}
	return nil, false
}

// Find is the convenience wrapper over FindBy for an exact key match.
func (t Tags) Find(key string) ([]byte, bool) {
	prefix := append([]byte(key), 0)
	return t.FindBy(func(keyBlock, _ []byte) bool {
		return bytes.HasPrefix(keyBlock, prefix)
	})
}

// Has reports whether this entity carries key=value. It stops at the first
// key match regardless of its value (spec.md §4.H "first-key-wins": OSM
// convention is that a key appears at most once per entity, so a value
// mismatch on the first match returns false immediately rather than
// continuing to scan for a later occurrence of the same key).
func (t Tags) Has(key, value string) bool {
	keyPrefix := append([]byte(key), 0)
	valPrefix := append([]byte(value), 0)
	found := false
	matches := false
	for _, pos := range t.idx {
		tag := t.tags[pos]
		keyBlock := t.strings[tag.KeyOffset:]
		if !bytes.HasPrefix(keyBlock, keyPrefix) {
			continue
		}
		found = true
		valBlock := t.strings[tag.ValOffset:]
		matches = bytes.HasPrefix(valBlock, valPrefix)
		break
	}
	return found && matches
}

// cstr returns the NUL-terminated string starting at off, excluding the NUL.
func cstr(pool []byte, off uint64) []byte {
	end := off
	for end < uint64(len(pool)) && pool[end] != 0 {
		end++
	}
	return pool[off:end]
}
