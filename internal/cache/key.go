package cache

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/phrazzld/scry-lexicon/internal/generation"
	"golang.org/x/crypto/blake2b"
)

// Key derives the cache key of a request for primaryText with params. Text
// fields are trimmed and lower-cased, so "Hund" and " hund " share an entry,
// and every field is length-prefixed so no two distinct tuples collide by
// concatenation. The output count and level are part of the key because they
// shape the generated payload; a zero count keys as the default count.
func Key(primaryText string, params generation.Params) string {
	h, _ := blake2b.New256(nil)

	fields := []string{
		primaryText,
		params.SourceLang,
		params.TargetLang,
		string(params.Task),
		strconv.Itoa(params.EffectiveOutputCount()),
		params.Level,
	}

	var size [4]byte
	for _, field := range fields {
		normalized := strings.ToLower(strings.TrimSpace(field))
		binary.BigEndian.PutUint32(size[:], uint32(len(normalized)))
		h.Write(size[:])
		h.Write([]byte(normalized))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// KeyFor derives the cache key of req.
func KeyFor(req generation.Request) string {
	return Key(req.PrimaryText, req.Params)
}
