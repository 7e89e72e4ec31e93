package mocache

import (
	"crypto/sha256"
	"encoding/hex"
)

// DeriveKey computes the cache fingerprint for a catalog file.
//
// For the host core catalog (empty or "default" domain) an empty seed is
// replaced by hostVersion, so core translations are invalidated whenever the
// host is upgraded. A non-empty caller seed always wins.
func DeriveKey(domain, sourcePath, seed, hostVersion string) string {
	if seed == "" && isDefaultDomain(domain) {
		seed = hostVersion
	}
	hash := sha256.Sum256([]byte(CacheFormatVersion + seed + domain + sourcePath))
	return hex.EncodeToString(hash[:])
}
