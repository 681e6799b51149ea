// Package main provides the mapexport tool, which moves maps between
// the daemon's bbolt store and the YAML interchange format.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mudtools/msdpmap/internal/mapfile"
	"github.com/mudtools/msdpmap/internal/store"
)

func main() {
	storePath := flag.String("store", "msdpmap.db", "path to the map store")
	exportPath := flag.String("export", "", "write the stored map to this YAML file")
	importPath := flag.String("import", "", "merge this YAML map into the store")
	flag.Parse()

	if (*exportPath == "") == (*importPath == "") {
		fmt.Fprintln(os.Stderr, "usage: mapexport -store <db> (-export <file> | -import <file>)")
		os.Exit(1)
	}

	start := time.Now()
	st, err := store.Open(*storePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	switch {
	case *exportPath != "":
		g, err := st.LoadGraph()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if err := mapfile.WriteFile(*exportPath, g); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("exported %d room(s) to %s in %s\n",
			g.RoomCount(), *exportPath, time.Since(start).Round(time.Millisecond))

	case *importPath != "":
		g, err := mapfile.ReadFile(*importPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if err := st.SaveGraph(g); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("imported %d room(s) from %s in %s\n",
			g.RoomCount(), *importPath, time.Since(start).Round(time.Millisecond))
	}
}
