package main

import (
	"os"

	"github.com/queryflow/pipeql/cmd/pipeql/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
