// Package pkg provides the core libraries for synopackage, an aggregation
// and cache layer over third-party Synology package sources.
//
// # Overview
//
// Package sources answer the same device-identifying request with catalogs
// in several JSON shapes, at very different speeds, and sometimes not at
// all. The pkg directory is organized into three main areas:
//
//  1. [spk], [search] - Domain types, request building, catalog parsing, filtering
//  2. [fetch], [cache], [catalog], [icons] - Transport and the two caches
//  3. [aggregator] - Orchestration (cache → fetch → parse → icons → filter)
//
// Supporting packages: [config] and [registry] for configuration, [errors]
// for coded errors, [observability] for hooks and [buildinfo] for version
// information.
//
// # Architecture
//
// The typical data flow of one package query:
//
//	Request{sourceName, model, version, isBeta, keyword}
//	         ↓
//	    [registry] (resolve names, apply defaults)
//	         ↓
//	    [catalog] cache hit? ──yes──┐
//	         ↓ no                   │
//	    [spk] request → [fetch] → [spk] parse → [catalog] store
//	         ↓                      │
//	    [icons] (materialize) ←─────┘
//	         ↓
//	    [search] (filter + sort) → projected packages
//	         ↓
//	    Envelope{success, errorMessage, parameters, packages}
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/synopackage/pkg/aggregator"
//	    "github.com/matzehuels/synopackage/pkg/config"
//	    "github.com/matzehuels/synopackage/pkg/fetch"
//	)
//
//	cfg := config.Default()
//	reg, _ := cfg.Registry()
//	f := fetch.NewFetcher(fetch.WithTimeout(cfg.Timeout()))
//	defer f.Close()
//
//	svc := aggregator.New(aggregator.Options{
//	    Fetcher:  f,
//	    Registry: reg,
//	    Defaults: aggregator.Defaults{Model: "DS918+", Version: "6.2.4-25556"},
//	})
//	env, err := svc.Resolve(ctx, aggregator.Request{SourceName: "synocommunity", Keyword: "media"})
//
// # Main Packages
//
// ## Domain
//
//   - [spk]: Device/Request types, catalog shapes and the client-facing Package
//   - [search]: Keyword matching and name ordering
//
// ## Infrastructure
//
//   - [fetch]: HTTP client with DNS caching and per-host circuit breakers
//   - [cache]: File, Redis, MongoDB and null stores
//   - [catalog]: TTL-bounded catalog cache with tri-state lookups
//   - [icons]: Icon materialization with magic-byte checks and fallbacks
//
// ## Orchestration
//
//   - [aggregator]: GetPackages, Resolve and SearchAll
//
// [spk]: https://pkg.go.dev/github.com/matzehuels/synopackage/pkg/spk
// [search]: https://pkg.go.dev/github.com/matzehuels/synopackage/pkg/search
// [fetch]: https://pkg.go.dev/github.com/matzehuels/synopackage/pkg/fetch
// [cache]: https://pkg.go.dev/github.com/matzehuels/synopackage/pkg/cache
// [catalog]: https://pkg.go.dev/github.com/matzehuels/synopackage/pkg/catalog
// [icons]: https://pkg.go.dev/github.com/matzehuels/synopackage/pkg/icons
// [aggregator]: https://pkg.go.dev/github.com/matzehuels/synopackage/pkg/aggregator
// [config]: https://pkg.go.dev/github.com/matzehuels/synopackage/pkg/config
// [registry]: https://pkg.go.dev/github.com/matzehuels/synopackage/pkg/registry
// [errors]: https://pkg.go.dev/github.com/matzehuels/synopackage/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/synopackage/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/synopackage/pkg/buildinfo
package pkg
