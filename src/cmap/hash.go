package cmap

import "github.com/cespare/xxhash/v2"

// XXHash hashes a single string with xxhash, our preferred hasher for cmap
// keys: fast, with good distribution even over short label-fragment keys.
func XXHash(s string) uint64 {
	return xxhash.Sum64String(s)
}

// XXHashes hashes the concatenation of several strings with xxhash, used to
// key a Map by a Label's component fields without first joining them into
// one string.
func XXHashes(s ...string) uint64 {
	d := xxhash.New()
	for _, x := range s {
		d.WriteString(x)
	}
	return d.Sum64()
}
