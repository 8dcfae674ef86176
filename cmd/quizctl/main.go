package main

import (
	"os"

	"github.com/formula-ihu/quiz-api/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
