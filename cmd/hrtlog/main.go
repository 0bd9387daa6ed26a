package main

import (
	"fmt"
	"os"

	"github.com/MrSnakeDoc/hrtlog/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ hrtlog: %v\n", err)
		os.Exit(1)
	}
}
