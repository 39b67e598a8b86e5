package main

import (
	"os"

	"github.com/llehouerou/ytm/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
