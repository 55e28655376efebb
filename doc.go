// Package mapresolve acquires, verifies, caches and composes the symbol
// mapping tables for one runtime version.
//
// A [Provider] is constructed once by process initialization and passed to
// whatever needs public to stable name translation. [Provider.Start] runs
// the pipeline on a single background goroutine:
//
//	check cache -> (skip | resolve manifest, refresh artifacts) -> compose -> publish
//
// The result is published through an [Outcome], a single-assignment future
// that any number of callers may wait on or attach a continuation to.
//
// # Quick Start
//
//	p, err := mapresolve.New(mapresolve.Environment{
//	    RuntimeVersion: "1.20.1",
//	    Build:          "20230612.114412",
//	    Distribution:   manifest.Client,
//	    DataRoot:       "/var/cache/mappings",
//	}, mapresolve.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	table, err := p.Start().Wait(ctx)
//	if err != nil {
//	    // No renaming available; skip translation.
//	}
//	names := table.Methods("com.example.Foo", "doThing")
//
// # Caching
//
// Artifacts live under <DataRoot>/<RuntimeVersion>/. The descriptor and the
// official table are re-verified against their upstream SHA-1 on every run;
// the intermediate archive is trusted once present.
package mapresolve
