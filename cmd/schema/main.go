// Command schema regenerates the embedded JSON schema for the config file.
// Invoked via go:generate from pkg/config.
package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/Barac9492/contrarian-brief/pkg/config"
)

func main() {
	out := "schema.json"
	if len(os.Args) > 1 {
		out = os.Args[1]
	}

	schema, err := config.GenerateSchema()
	if err != nil {
		log.Fatalf("failed to generate schema: %v", err)
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal schema: %v", err)
	}

	if err := os.WriteFile(out, data, 0o600); err != nil {
		log.Fatalf("failed to write %s: %v", out, err)
	}

	log.Printf("schema written to %s", out)
}
