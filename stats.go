package transformcache

import "sync/atomic"

// Stats counts what a Transformer did since it was created.
type Stats struct {
	Bypassed int64 // Inputs returned untouched by the shouldTransform gate
	Uncached int64 // Transform calls made with caching disabled
	Hits     int64 // Results served from cache files
	Misses   int64 // Transform calls made because no cache file existed
	Writes   int64 // Cache files written
	Retries  int64 // Write attempts repeated after the cache directory vanished
}

type counters struct {
	bypassed atomic.Int64
	uncached atomic.Int64
	hits     atomic.Int64
	misses   atomic.Int64
	writes   atomic.Int64
	retries  atomic.Int64
}

// Stats returns a snapshot of the transformer's counters.
func (t *Transformer) Stats() Stats {
	return Stats{
		Bypassed: t.stats.bypassed.Load(),
		Uncached: t.stats.uncached.Load(),
		Hits:     t.stats.hits.Load(),
		Misses:   t.stats.misses.Load(),
		Writes:   t.stats.writes.Load(),
		Retries:  t.stats.retries.Load(),
	}
}
