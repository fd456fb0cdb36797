// Package aggregator answers package queries against Synology package
// sources.
//
// # GetPackages
//
// [Service.GetPackages] runs one query against one source:
//
//	INIT → CACHE_LOOKUP ─hit──────────────────────────→ POSTPROCESS → DONE
//	                    └miss→ FETCH ─ok→ PARSE → STORE ┘
//	                                 └fail→ ERROR
//
// The catalog is read from the catalog cache when fresh, otherwise fetched
// (POST form, or GET with a query string for legacy sources), parsed and
// written back. Post-processing is the same for cached and fresh catalogs:
// icons are materialized, packages are filtered by keyword, sorted by name
// and projected to [spk.Package].
//
// Every call returns an [Envelope]. Packages is nil exactly when Success is
// false; an empty, non-nil slice is a successful query with no matches.
//
// Each call logs one "parameters" record on entry and one "result" record
// on exit with the origin (cache or server), elapsed time and package count.
//
// # Resolve and SearchAll
//
// [Service.Resolve] validates raw request strings, applies the default
// model and version, looks the names up in the registry and calls
// GetPackages. [Service.SearchAll] does the same for every active source
// concurrently.
//
// Concurrent queries for the same catalog are not coalesced: both may fetch
// and the last write to the cache wins.
package aggregator
