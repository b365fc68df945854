package scancache

import (
	"testing"
	"time"

	"github.com/clem/episcan/internal/store"
)

// fakeFactStore keeps scan facts in memory.
type fakeFactStore struct {
	facts map[string]*store.ScanFact
}

func newFakeFactStore() *fakeFactStore {
	return &fakeFactStore{facts: make(map[string]*store.ScanFact)}
}

func (f *fakeFactStore) GetScanFact(path string) (*store.ScanFact, error) {
	fact, ok := f.facts[path]
	if !ok {
		return nil, nil
	}
	copied := *fact
	return &copied, nil
}

func (f *fakeFactStore) PutScanFact(fact *store.ScanFact) error {
	copied := *fact
	f.facts[fact.Path] = &copied
	return nil
}

func newTestCache(facts FactStore, now time.Time) *Cache {
	c := New(facts)
	c.now = func() time.Time { return now }
	return c
}

func TestShouldSkipDecisionTable(t *testing.T) {
	now := time.Unix(1700000000, 0)
	recentScan := now.Add(-1 * time.Hour).Unix()
	staleScan := now.Add(-48 * time.Hour).Unix()
	ttl := 24 * time.Hour

	tests := []struct {
		name        string
		fact        *store.ScanFact
		fingerprint string
		ttl         time.Duration
		expected    bool
	}{
		{"no stored fact", nil, "L1", ttl, false},
		{"no stored fact, zero ttl", nil, "", 0, false},
		{"fingerprint changed, fresh scan", &store.ScanFact{LastScanTS: recentScan, Fingerprint: "L1"}, "L2", ttl, false},
		{"fingerprint changed, zero ttl", &store.ScanFact{LastScanTS: recentScan, Fingerprint: "L1"}, "L2", 0, false},
		{"fingerprint equal, fresh", &store.ScanFact{LastScanTS: recentScan, Fingerprint: "L1"}, "L1", ttl, true},
		{"fingerprint equal, stale", &store.ScanFact{LastScanTS: staleScan, Fingerprint: "L1"}, "L1", ttl, false},
		{"fingerprint equal, ttl disabled", &store.ScanFact{LastScanTS: recentScan, Fingerprint: "L1"}, "L1", 0, false},
		{"remote fingerprint empty, fresh", &store.ScanFact{LastScanTS: recentScan, Fingerprint: "L1"}, "", ttl, true},
		{"stored fingerprint empty, fresh", &store.ScanFact{LastScanTS: recentScan, Fingerprint: ""}, "L1", ttl, true},
		{"both empty, stale", &store.ScanFact{LastScanTS: staleScan, Fingerprint: ""}, "", ttl, false},
		{"both empty, ttl disabled", &store.ScanFact{LastScanTS: recentScan, Fingerprint: ""}, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := newFakeFactStore()
			if tt.fact != nil {
				tt.fact.Path = "/tv/ShowA"
				facts.PutScanFact(tt.fact)
			}
			cache := newTestCache(facts, now)

			got, err := cache.ShouldSkip("/tv/ShowA", tt.fingerprint, tt.ttl)
			if err != nil {
				t.Fatalf("ShouldSkip failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("ShouldSkip = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestSkipDoesNotRefreshScanTimestamp(t *testing.T) {
	facts := newFakeFactStore()
	scanTime := time.Unix(1700000000, 0)

	cache := newTestCache(facts, scanTime)
	if err := cache.MarkScanned("/tv/ShowA", "L1"); err != nil {
		t.Fatal(err)
	}

	ttl := 24 * time.Hour

	// 12 hours later the skip decision is positive but must not touch the fact.
	cache.now = func() time.Time { return scanTime.Add(12 * time.Hour) }
	skip, err := cache.ShouldSkip("/tv/ShowA", "L1", ttl)
	if err != nil {
		t.Fatal(err)
	}
	if !skip {
		t.Fatal("expected skip 12h after scan with 24h ttl")
	}

	// 25 hours after the original scan the fact is stale, even though a skip
	// happened in between. TTL measures from the last actual scan.
	cache.now = func() time.Time { return scanTime.Add(25 * time.Hour) }
	skip, err = cache.ShouldSkip("/tv/ShowA", "L1", ttl)
	if err != nil {
		t.Fatal(err)
	}
	if skip {
		t.Error("skip decision must not slide the ttl window")
	}

	stored, _ := facts.GetScanFact("/tv/ShowA")
	if stored.LastScanTS != scanTime.Unix() {
		t.Errorf("scan timestamp changed without a rescan: %d", stored.LastScanTS)
	}
}

func TestMarkScannedUpserts(t *testing.T) {
	facts := newFakeFactStore()
	now := time.Unix(1700000000, 0)
	cache := newTestCache(facts, now)

	if err := cache.MarkScanned("/tv/ShowA", "L1"); err != nil {
		t.Fatal(err)
	}
	cache.now = func() time.Time { return now.Add(time.Hour) }
	if err := cache.MarkScanned("/tv/ShowA", "L2"); err != nil {
		t.Fatal(err)
	}

	fact, _ := facts.GetScanFact("/tv/ShowA")
	if fact.Fingerprint != "L2" {
		t.Errorf("fingerprint = %q, expected L2", fact.Fingerprint)
	}
	if fact.LastScanTS != now.Add(time.Hour).Unix() {
		t.Errorf("timestamp not refreshed by rescan")
	}
}
