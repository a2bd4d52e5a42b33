package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
)

// Version is set at build time with -ldflags "-X angles/internal/cli.Version=...".
var Version = "dev"

func HandleVersion() {
	printVersion(os.Stdout)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "angles %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
