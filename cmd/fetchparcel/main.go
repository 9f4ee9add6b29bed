// Command fetchparcel exports the full version history of one cadastral
// parcel as a GeoJSON FeatureCollection, one feature per version with the
// validity interval in its properties.
//
// Usage: go run ./cmd/fetchparcel -tunnus 79501:027:0011 -o parcel.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"kataster.exe.dev/srv/kataster"
)

var (
	flagTunnus = flag.String("tunnus", "", "cadastral identifier (NNNNN:NNN:NNNN)")
	flagOutput = flag.String("o", "", "output file (default <tunnus>.json)")
	flagDelay  = flag.Duration("delay", time.Second, "delay between geometry requests")
)

type outFeature struct {
	Type       string             `json:"type"`
	Geometry   *kataster.Geometry `json:"geometry"`
	Properties map[string]any     `json:"properties"`
}

type outCollection struct {
	Type     string       `json:"type"`
	Features []outFeature `json:"features"`
}

func main() {
	log.SetFlags(log.Ltime)
	flag.Parse()

	tunnus := strings.TrimSpace(*flagTunnus)
	if !kataster.ValidTunnus(tunnus) {
		log.Fatalf("Invalid or missing -tunnus %q, expected NNNNN:NNN:NNNN", *flagTunnus)
	}

	output := *flagOutput
	if output == "" {
		output = strings.ReplaceAll(tunnus, ":", "_") + ".json"
	}

	client := kataster.NewClient()
	if base := os.Getenv("KATASTER_WFS_URL"); base != "" {
		client = kataster.NewClientWithURL(base)
	}
	ctx := context.Background()

	versions, err := client.ListVersions(ctx, tunnus, "")
	if err != nil {
		log.Fatalf("Failed to list versions: %v", err)
	}
	log.Printf("Parcel %s has %d versions", tunnus, len(versions))

	var fetched, noGeom int
	fc := outCollection{Type: "FeatureCollection"}

	for i, v := range versions {
		label := v.ValidTo
		if label == "" {
			label = "active"
		}
		log.Printf("[%d/%d] Fetching geometry for %s .. %s", i+1, len(versions), v.ValidFrom, label)

		records, err := client.FetchGeometry(ctx, tunnus, v.ValidFrom, v.ValidTo)
		if err != nil {
			log.Printf("  -> %v", err)
			noGeom++
			time.Sleep(*flagDelay)
			continue
		}

		for _, rec := range records {
			props := map[string]any{
				"tunnus":     rec.Tunnus,
				"valid_from": rec.ValidFrom,
			}
			if rec.ValidTo != "" {
				props["valid_to"] = rec.ValidTo
			}
			if rec.Acquisition != "" {
				props["acquisition"] = rec.Acquisition
			}
			fc.Features = append(fc.Features, outFeature{
				Type:       "Feature",
				Geometry:   rec.Geometry,
				Properties: props,
			})
			fetched++
		}
		time.Sleep(*flagDelay)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal results: %v", err)
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		log.Fatalf("Failed to write output file %s: %v", output, err)
	}

	log.Printf("")
	log.Printf("=== Summary ===")
	log.Printf("Versions: %d", len(versions))
	log.Printf("Geometries fetched: %d", fetched)
	log.Printf("Without geometry: %d", noGeom)
	log.Printf("Results saved to: %s", output)
}
