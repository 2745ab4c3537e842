// mkicon generates an app icon PNG from the shared icon package.
// Usage: go run ./cmd/mkicon <output.png> [size]
package main

import (
	"fmt"
	"image/png"
	"os"

	"webperch/internal/icon"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: mkicon <output.png> [size]")
		os.Exit(1)
	}
	size := 256
	if len(os.Args) > 2 {
		fmt.Sscanf(os.Args[2], "%d", &size)
	}
	img := icon.Draw(size)
	f, err := os.Create(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkicon: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		fmt.Fprintf(os.Stderr, "mkicon: %v\n", err)
		os.Exit(1)
	}
}
