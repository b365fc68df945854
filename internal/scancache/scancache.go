package scancache

import (
	"time"

	"github.com/clem/episcan/internal/store"
	"github.com/clem/episcan/internal/util"
)

// FactStore is the durable scan-fact table the cache decides against.
type FactStore interface {
	GetScanFact(path string) (*store.ScanFact, error)
	PutScanFact(fact *store.ScanFact) error
}

// Cache makes per-directory skip/rescan decisions from the stored scan fact,
// the current remote fingerprint and a TTL.
type Cache struct {
	facts FactStore
	now   func() time.Time
}

// New creates a Cache backed by the given fact store.
func New(facts FactStore) *Cache {
	return &Cache{facts: facts, now: time.Now}
}

// ShouldSkip reports whether the directory at path can be skipped this run.
//
// Decision order:
//  1. no stored fact: never skip an unseen directory
//  2. both fingerprints non-empty and different: remote changed, rescan
//  3. both non-empty and equal: skip iff ttl > 0 and the last scan is fresh
//  4. either fingerprint empty: TTL-only fallback
//
// A skip never refreshes the stored fact, so freshness is always measured
// from the last actual scan.
func (c *Cache) ShouldSkip(path, remoteFingerprint string, ttl time.Duration) (bool, error) {
	fact, err := c.facts.GetScanFact(path)
	if err != nil {
		return false, err
	}
	if fact == nil {
		return false, nil
	}

	elapsed := c.now().Sub(time.Unix(fact.LastScanTS, 0))
	fresh := ttl > 0 && elapsed < ttl

	if remoteFingerprint != "" && fact.Fingerprint != "" {
		if remoteFingerprint != fact.Fingerprint {
			util.DebugLog("scan cache: %s changed remotely, forcing rescan", path)
			return false, nil
		}
		return fresh, nil
	}

	// No reliable change signal from the server; degrade to time-based caching.
	return fresh, nil
}

// MarkScanned records that path was actually walked just now under the given
// remote fingerprint.
func (c *Cache) MarkScanned(path, remoteFingerprint string) error {
	return c.facts.PutScanFact(&store.ScanFact{
		Path:        path,
		LastScanTS:  c.now().Unix(),
		Fingerprint: remoteFingerprint,
	})
}
