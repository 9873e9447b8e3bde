package main

import (
	"fmt"
	"os"

	"github.com/medigate/medigate-cli/internal/cli"
	"github.com/medigate/medigate-cli/internal/config"
)

var version = "dev"

func main() {
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	cli.Version = version
	cli.Execute()
}
