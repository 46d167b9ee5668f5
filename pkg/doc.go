// Package pkg provides the core libraries for bedplan raised-bed layout.
//
// # Overview
//
// bedplan allocates plants to the cells of raised garden beds. Each plant
// receives a share of the available space, is placed as one compact
// rectangle on the bed whose light suits it best, and leftover gaps are
// filled from neighbouring plants. Sprawling plants, which need several
// cells per specimen, are then split into individual specimens.
//
// The pkg directory is organized into four main areas:
//
//  1. Domain model: [garden] (beds, gardens, plant types) and [catalog]
//  2. Engine: [core/alloc] (planning) and [core/specimen] (decomposition)
//  3. Infrastructure: [cache], [store], [config], [observability], [io]
//  4. Orchestration: [pipeline] (cached runs) and [server] (HTTP API)
//
// # Architecture
//
// The typical data flow:
//
//	Garden JSON / stored garden        plant catalogue (YAML)
//	            ↓                              ↓
//	       [io] package                [catalog] package
//	            ↘                             ↙
//	              [core/alloc] Planner.Plan
//	            (targets → clusters → gap fill)
//	                          ↓
//	              [core/specimen] Decompose
//	                          ↓
//	         planted garden + placements + regions
//
// # Quick Start
//
//	g, _ := io.ImportJSON("garden.json")
//	plants, _ := catalog.Default().Select("TOM", "BAS", "CUC")
//
//	plan, _ := alloc.NewPlanner(alloc.SimplePolicy()).Plan(g, plants, alloc.Options{
//	    PrioritizeLight: true,
//	})
//	for i, b := range plan.Garden.Beds() {
//	    regions := specimen.Decompose(b, garden.LookupFrom(plants))
//	    fmt.Println(i, len(regions))
//	}
//
// Use [pipeline.Runner] to get the same with caching, logging and metrics.
//
// # Testing
//
//	go test ./pkg/...                                 # All tests
//	go test ./pkg/core/alloc/...                      # Specific package
//	go test -run Example                              # Examples only
//	BEDPLAN_MONGO_URI=mongodb://... go test ./pkg/store/mongo  # Mongo integration
//
// [garden]: https://pkg.go.dev/github.com/matzehuels/bedplan/pkg/garden
// [catalog]: https://pkg.go.dev/github.com/matzehuels/bedplan/pkg/catalog
// [core/alloc]: https://pkg.go.dev/github.com/matzehuels/bedplan/pkg/core/alloc
// [core/specimen]: https://pkg.go.dev/github.com/matzehuels/bedplan/pkg/core/specimen
// [cache]: https://pkg.go.dev/github.com/matzehuels/bedplan/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/bedplan/pkg/store
// [config]: https://pkg.go.dev/github.com/matzehuels/bedplan/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/bedplan/pkg/observability
// [io]: https://pkg.go.dev/github.com/matzehuels/bedplan/pkg/io
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/bedplan/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/bedplan/pkg/pipeline#Runner
// [server]: https://pkg.go.dev/github.com/matzehuels/bedplan/pkg/server
package pkg
