// Command bundle-inspect prints a model archive's metadata without
// constructing an inference backend — a small dev tool for checking
// what a bundle believes about its training cost parameters.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/Rajchodisetti/oracle-core/internal/modelbundle"
)

func main() {
	path := flag.String("bundle", "", "path to a model archive")
	flag.Parse()
	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: bundle-inspect -bundle <path>")
		os.Exit(2)
	}

	loader := modelbundle.New(modelbundle.NewMockBackendFactory())
	meta, err := loader.LoadMetadataOnly(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *path, err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode metadata: %v\n", err)
		os.Exit(1)
	}
}
