/*
Package metrics exposes Prometheus counters, gauges, and histograms for
hashdb's stores, import sessions, and scan-stream scheduler, plus an
http.Handler (Handler) suitable for mounting at /metrics.

Series are grouped by component: hashdb_hash_data_*, hashdb_prefilter_*,
hashdb_bloom_*, hashdb_scan_*, hashdb_store_map_growths_total. All are
registered on the default Prometheus registry at package init, matching
the teacher repository's manual-registration style rather than promauto.
*/
package metrics
