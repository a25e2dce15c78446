package main

import (
	"os"

	"github.com/thungan1909/easy-english-backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
