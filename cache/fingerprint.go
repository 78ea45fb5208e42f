// Package cache implements the content-addressed persistent store of
// §4.5: a key/value store, backed by sqlite, keyed by a fingerprint
// over (kind, canonicalized input, canonicalized parameters).
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Params is a canonicalizable bag of cache-key parameters, e.g.
// (env_fontsize, env_preamble, env_block_prepend, env_exec) for LaTeX
// or (layout, width) for Graphviz.
type Params map[string]string

// canonical renders p deterministically: keys sorted, "k=v" pairs
// joined by '\x1f' (unit separator), so that map iteration order never
// affects the fingerprint. No canonical-JSON library is used here —
// nothing in the example corpus reaches for one either, so a
// hand-rolled deterministic join stays in the standard library.
func (p Params) canonical() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + p[k]
	}

	return strings.Join(parts, "\x1f")
}

// Fingerprint computes the cache key for kind's body under params, per
// §4.5's "fingerprint = hash(kind_tag ‖ canonicalized_input ‖
// canonicalized_parameters)".
func Fingerprint(kind, body string, params Params) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(body))
	h.Write([]byte{0})
	h.Write([]byte(params.canonical()))

	return hex.EncodeToString(h.Sum(nil))
}
