package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// ComputeParamsHash computes a deterministic hash of a parameter set using SHA256.
// Formula: SHA256("k1"="v1"|"k2"="v2"|...) with keys sorted ASC, keys and
// values Go-quoted so separators inside them cannot collide, and empty
// values skipped.
// Returns hex-encoded hash (64 characters).
func ComputeParamsHash(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(params[k]))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

// ComputeQueryKey builds a cache key of the form <section>/<resource>/<hash>.
// The section/resource prefix keeps keys invalidatable per section.
func ComputeQueryKey(section, resource string, params map[string]string) string {
	return section + "/" + resource + "/" + ComputeParamsHash(params)
}

// KeyPrefix returns the prefix shared by every key of section.
func KeyPrefix(section string) string {
	return section + "/"
}
