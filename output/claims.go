package output

import (
	"strconv"
	"strings"

	"github.com/publicrust/DotnetDllParser/am"
	"github.com/publicrust/DotnetDllParser/errors"
)

// ErrCollision marks a type whose file name is already taken in its module
// under the "fail" policy.
var ErrCollision = errors.New("output file name collision")

// Claims tracks which file stems have been handed out within one module.
// Two types in different namespaces can share a simple name; the policy
// decides what the second one gets.
//
// Stems are compared case-insensitively so the layout is stable on
// case-insensitive filesystems.
type Claims struct {
	policy     string
	owners     map[string]string // lower(stem) -> full name of claimant
	collisions int
}

// NewClaims returns an empty tracker for policy (qualify, overwrite or fail)
func NewClaims(policy string) *Claims {
	if policy == "" {
		policy = am.CollisionQualify
	}
	return &Claims{policy: policy, owners: make(map[string]string)}
}

// Claim returns the file stem (file name without extension) for a type.
//
//	qualify   first claimant keeps simpleName, later ones get their sanitized full name
//	overwrite every claimant gets simpleName; the last write wins
//	fail      later claimants get an ErrCollision error
func (c *Claims) Claim(simpleName, fullName string) (string, error) {
	stem := SanitizeFileName(simpleName)
	key := strings.ToLower(stem)

	owner, taken := c.owners[key]
	if !taken {
		c.owners[key] = fullName
		return stem, nil
	}
	c.collisions++

	switch c.policy {
	case am.CollisionOverwrite:
		return stem, nil
	case am.CollisionFail:
		return "", errors.WithDetailf(
			errors.Mark(errors.Newf("file name %q is already taken by %s", stem, owner), ErrCollision),
			"type %s", fullName)
	}

	qualified := SanitizeFileName(fullName)
	if qualified == "" {
		qualified = stem
	}
	candidate := qualified
	for n := 2; ; n++ {
		if _, exists := c.owners[strings.ToLower(candidate)]; !exists {
			break
		}
		candidate = qualified + "~" + strconv.Itoa(n)
	}
	c.owners[strings.ToLower(candidate)] = fullName
	return candidate, nil
}

// Stems returns the file stems a type can end up under in its module: the
// sanitized simple name and the sanitized full name used by the qualify
// policy. Numbered "~N" variants are not included.
func Stems(simpleName, fullName string) []string {
	var stems []string
	if s := SanitizeFileName(simpleName); s != "" {
		stems = append(stems, s)
	}
	if q := SanitizeFileName(fullName); q != "" && q != SanitizeFileName(simpleName) {
		stems = append(stems, q)
	}
	return stems
}

// Collisions returns how many claims hit an already-taken stem
func (c *Claims) Collisions() int { return c.collisions }

// Stems returns the number of distinct stems handed out
func (c *Claims) Stems() int { return len(c.owners) }
