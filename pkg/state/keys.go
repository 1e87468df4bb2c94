package state

import "strings"

// Key identifies a slot in the store.
type Key string

// String returns the key as a string.
func (k Key) String() string {
	return string(k)
}

// Collection is a key prefix shared by a family of per-entity keys.
type Collection string

// Member returns the key of the collection member with the given id.
func (c Collection) Member(id string) Key {
	return Key(string(c) + id)
}

// Owns reports whether key belongs to the collection.
func (c Collection) Owns(key Key) bool {
	return c != "" && strings.HasPrefix(string(key), string(c)) && len(key) > len(c)
}

// ID returns the member id encoded in key, or "" if key is not a member.
func (c Collection) ID(key Key) string {
	if !c.Owns(key) {
		return ""
	}
	return string(key)[len(c):]
}
