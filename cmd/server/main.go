package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"turnrouter/pkg/api"
	"turnrouter/pkg/graph"
	"turnrouter/pkg/osmsource"
	"turnrouter/pkg/profile"
	"turnrouter/pkg/routing"
)

func main() {
	pbfPath := flag.String("pbf", "", "Path to .osm.pbf file")
	mode := flag.String("mode", "car", "Routing mode: car, bus, bicycle, foot, rail, tram, subway")
	avoidUTurns := flag.Bool("no-u-turns", true, "Disallow U-turns mid-route")
	stepLimit := flag.Int("step-limit", 2_000_000, "Max A* steps per query before giving up (0 = unlimited)")
	port := flag.Int("port", 8080, "HTTP port")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (empty = same-origin)")
	bbox := flag.String("bbox", "", "Bounding box filter: minLat,minLng,maxLat,maxLng")
	flag.Parse()

	if *pbfPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: server --pbf <file.osm.pbf> [--mode car] [--port 8080]")
		os.Exit(1)
	}

	p, err := profileByName(*mode)
	if err != nil {
		log.Fatalf("%v", err)
	}

	var opts osmsource.Options
	if *bbox != "" {
		var minLat, minLng, maxLat, maxLng float64
		if _, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng); err != nil {
			log.Fatalf("invalid bbox format (expected minLat,minLng,maxLat,maxLng): %v", err)
		}
		opts.BBox = osmsource.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
		log.Printf("Using bounding box filter: lat [%.4f, %.4f], lng [%.4f, %.4f]", minLat, maxLat, minLng, maxLng)
	}

	start := time.Now()

	log.Println("Opening OSM file...")
	f, err := os.Open(*pbfPath)
	if err != nil {
		log.Fatalf("Failed to open input file: %v", err)
	}
	defer f.Close()

	log.Println("Parsing OSM data...")
	src, err := osmsource.Parse(context.Background(), f, opts)
	if err != nil {
		log.Fatalf("Failed to parse OSM data: %v", err)
	}
	log.Printf("Parsed %d features", src.Len())

	log.Println("Building graph...")
	g, err := graph.FromFeatures(p, src, nil)
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}
	log.Printf("Graph: %d nodes, %d edges", g.NumNodes(), g.NumEdges())

	if largest := graph.LargestComponent(g); len(largest) < g.NumNodes() {
		log.Printf("Largest connected component: %d/%d nodes (%.1f%%) - a smaller share than expected usually means a profile or data bug", len(largest), g.NumNodes(), float64(len(largest))/float64(g.NumNodes())*100)
	}

	engine := routing.NewEngine(g, *avoidUTurns, *stepLimit)

	// Reclaim memory from parsing temporaries before serving requests.
	runtime.GC()
	debug.FreeOSMemory()

	log.Printf("Ready in %s", time.Since(start).Round(time.Millisecond))

	addr := fmt.Sprintf(":%d", *port)
	cfg := api.DefaultConfig(addr)
	cfg.CORSOrigin = *corsOrigin

	stats := api.StatsResponse{
		NumNodes: g.NumNodes(),
		NumEdges: g.NumEdges(),
	}

	handlers := api.NewHandlers(engine, stats)
	srv := api.NewServer(cfg, handlers)

	if err := api.ListenAndServe(srv); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
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
