// Command dap serves netCDF and HDF5 files over DAP2.
package main

import (
	"fmt"
	"os"

	"github.com/robert-malhotra/go-dap/internal/cli"
)

func main() {
	cfg := cli.InitializeConfig()
	if err := cfg.Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
