package main

import (
	"os"

	"github.com/malbeclabs/scichart/internal/cli"
)

func main() {
	os.Exit(int(cli.Run()))
}
