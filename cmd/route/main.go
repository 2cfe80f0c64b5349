// Command route is a one-shot CLI query tool: parse a .osm.pbf file,
// build the routing graph in memory, answer a single route query, and
// print the result. There is no persisted graph format — a graph is
// cheap enough to rebuild per invocation that the old contraction-
// hierarchy preprocessing step this tool used to depend on no longer has
// a reason to exist.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"turnrouter/pkg/graph"
	"turnrouter/pkg/osmsource"
	"turnrouter/pkg/profile"
	"turnrouter/pkg/routing"
)

func main() {
	pbfPath := flag.String("pbf", "", "Path to .osm.pbf file")
	mode := flag.String("mode", "car", "Routing mode: car, bus, bicycle, foot, rail, tram, subway")
	avoidUTurns := flag.Bool("no-u-turns", true, "Disallow U-turns mid-route")
	stepLimit := flag.Int("step-limit", 2_000_000, "Max A* steps before giving up (0 = unlimited)")
	startLat := flag.Float64("from-lat", 0, "Start latitude")
	startLng := flag.Float64("from-lng", 0, "Start longitude")
	endLat := flag.Float64("to-lat", 0, "End latitude")
	endLng := flag.Float64("to-lng", 0, "End longitude")
	flag.Parse()

	if *pbfPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: route --pbf <file.osm.pbf> --from-lat .. --from-lng .. --to-lat .. --to-lng ..")
		os.Exit(1)
	}

	p, err := profileByName(*mode)
	if err != nil {
		log.Fatalf("%v", err)
	}

	start := time.Now()

	f, err := os.Open(*pbfPath)
	if err != nil {
		log.Fatalf("failed to open input file: %v", err)
	}
	defer f.Close()

	src, err := osmsource.Parse(context.Background(), f, osmsource.Options{})
	if err != nil {
		log.Fatalf("failed to parse OSM data: %v", err)
	}
	log.Printf("parsed %d features", src.Len())

	g, err := graph.FromFeatures(p, src, nil)
	if err != nil {
		log.Fatalf("failed to build graph: %v", err)
	}
	log.Printf("graph: %d nodes, %d edges (built in %s)", g.NumNodes(), g.NumEdges(), time.Since(start).Round(time.Millisecond))

	engine := routing.NewEngine(g, *avoidUTurns, *stepLimit)

	queryStart := time.Now()
	result, err := engine.Route(context.Background(),
		routing.LatLng{Lat: *startLat, Lng: *startLng},
		routing.LatLng{Lat: *endLat, Lng: *endLng},
	)
	if err != nil {
		log.Fatalf("route query failed: %v", err)
	}
	log.Printf("routed in %s", time.Since(queryStart).Round(time.Millisecond))

	fmt.Printf("total distance: %.1f m\n", result.TotalDistanceMeters)
	for i, seg := range result.Segments {
		fmt.Printf("segment %d: %.1f m, %d points\n", i, seg.DistanceMeters, len(seg.Geometry))
		for _, ll := range seg.Geometry {
			fmt.Printf("  %.6f,%.6f\n", ll.Lat, ll.Lng)
		}
	}
}

func profileByName(name string) (profile.Profile, error) {
	switch name {
	case "car":
		return profile.Car(), nil
	case "bus":
		return profile.Bus(), nil
	case "bicycle":
		return profile.Bicycle(), nil
	case "foot":
		return profile.FootProfile(), nil
	case "rail":
		return profile.Rail(), nil
	case "tram":
		return profile.Tram(), nil
	case "subway":
		return profile.Subway(), nil
	default:
		return nil, fmt.Errorf("unknown mode %q", name)
	}
}
