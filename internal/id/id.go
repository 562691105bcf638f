// Package id generates the prefixed identifiers used for every Rigbook entity.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes. An id reads as "<prefix>-<nanoid>", e.g. "setup-V1StGXR8_Z5jdHi6B-myT".
const (
	PrefixSetup     = "setup"
	PrefixChainItem = "sci"
	PrefixGenre     = "genre"
	PrefixBand      = "band"
	PrefixSong      = "song"
	PrefixBrand     = "brand"
	PrefixGear      = "gear"
	PrefixOwnedGear = "og"
	PrefixUser      = "user"
)

// Generate creates a prefixed unique ID using NanoID.
// It fails only when the system cannot supply secure randomness.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// HasPrefix reports whether id was generated for prefix.
func HasPrefix(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	return ok && rest != ""
}
