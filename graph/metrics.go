package graph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var blocksScanned = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dagscan_blocks_scanned_total",
	Help: "DAG-CBOR blocks scanned for links",
}, []string{"status"})

var linksExtracted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "dagscan_links_extracted_total",
	Help: "Links extracted from scanned blocks",
})

var linkCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dagscan_link_cache_lookups_total",
	Help: "Lookups in the per-block link cache",
}, []string{"result"})

var missingBlocks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "dagscan_missing_blocks_total",
	Help: "Linked blocks not found in the blockstore during a walk",
})

var prefetchedBlocks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "dagscan_prefetched_blocks_total",
	Help: "Blocks copied from a remote source by the prefetcher",
})

var prefetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "dagscan_prefetch_duration_seconds",
	Help:    "Time to prefetch the closure of a set of roots",
	Buckets: prometheus.ExponentialBucketsRange(0.001, 60, 20),
})

var collectedBlocks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "dagscan_collected_blocks_total",
	Help: "Unreachable blocks deleted by garbage collection",
})
