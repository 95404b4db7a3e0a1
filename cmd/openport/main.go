package main

import (
	"os"

	"github.com/pratik-anurag/openport/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], cli.DefaultDeps()))
}
