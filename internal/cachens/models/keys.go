package models

import (
	"fmt"
	"regexp"
	"strconv"

	dErrors "caseflow/pkg/domain-errors"
)

// Key layout in the shared cache store. External tooling parses these keys,
// so the shapes are a compatibility contract and must not change:
//
//	version key:  cache_user_version:{principal_id}
//	enabled key:  cache_user_enabled:{principal_id}
//	full prefix:  cache:{principal_id}:v{version}:cacheops:
//	full key:     cache:{principal_id}:v{version}:cacheops:{query_hash}
const (
	versionKeyPrefix = "cache_user_version:"
	enabledKeyPrefix = "cache_user_enabled:"
)

// queryHashRe validates query hashes: non-empty lower-case hex.
var queryHashRe = regexp.MustCompile(`^[a-f0-9]+$`)

// ValidatePrincipalID rejects non-positive principal IDs before any store access.
func ValidatePrincipalID(principal int64) error {
	if principal <= 0 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "principal_id must be a positive integer, got %d", principal)
	}
	return nil
}

// ValidateQueryHash rejects anything that is not non-empty lower-case hex.
func ValidateQueryHash(queryHash string) error {
	if !queryHashRe.MatchString(queryHash) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "query_hash must be non-empty lower-case hex, got %q", queryHash)
	}
	return nil
}

// VersionKey returns the store key holding a principal's namespace version.
func VersionKey(principal int64) string {
	return versionKeyPrefix + strconv.FormatInt(principal, 10)
}

// EnabledKey returns the store key holding a principal's cache enabled flag.
func EnabledKey(principal int64) string {
	return enabledKeyPrefix + strconv.FormatInt(principal, 10)
}

// KeyPrefix returns the namespace prefix for all of a principal's cached
// entries at the given version. Bumping the version orphans every key under
// the previous prefix; the store's own eviction reclaims them.
func KeyPrefix(principal, version int64) string {
	return fmt.Sprintf("cache:%d:v%d:cacheops:", principal, version)
}

// CacheKey returns the full namespaced key for a query hash.
func CacheKey(principal, version int64, queryHash string) string {
	return KeyPrefix(principal, version) + queryHash
}
