/*
Package store provides the memory-mapped key-value substrate shared by
every hashdb store.

	┌──────────────────── STORE SUBSTRATE ─────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │  <hashdb_dir>/<store_name>/store.db         │          │
	│  │  - one bolt.DB per store (spec §6 directory │          │
	│  │    layout: hash_data_store/, hash_store/,   │          │
	│  │    source_id_store/, source_data_store/,    │          │
	│  │    source_name_store/)                       │          │
	│  │  - single bucket "data" per file             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │             Store                            │          │
	│  │  - Update(fn): one writer tx, serialized     │          │
	│  │  - View(fn): one reader tx, snapshot         │          │
	│  │  - Begin(): long-lived ReadSession for scans │          │
	│  └──────────────────────────────────────────────┘          │
	└────────────────────────────────────────────────────────────┘

Each of pkg/hashdata, pkg/prefilter, pkg/sourceid, pkg/sourcedata, and
pkg/sourcename holds one *Store and encodes/decodes its own record
format inside the []byte values store.Update/View hand it; this package
knows nothing about posting lists, Type-1/2/3 records, or Bloom bits —
only bytes in, bytes out, one transaction at a time.

Concurrency matches spec §5: bbolt already serializes one writer against
many concurrent readers with snapshot isolation; the per-store mutex here
exists so the facade in pkg/hashdb can acquire stores in the fixed order
spec §5 names (hash-data → prefilter → source-id → source-data →
source-name) when a single writer session touches more than one store.
*/
package store
