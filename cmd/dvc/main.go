package main

import (
	"os"

	"github.com/marcohefti/dvc/internal/cli"
)

var version = "0.1.0-dev"

func main() {
	r := cli.Runner{Version: version}
	os.Exit(r.Run(os.Args[1:]))
}
