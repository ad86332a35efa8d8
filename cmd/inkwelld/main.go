package main

import (
	"context"
	"fmt"
	"os"

	"inkwell/internal/config"
	"inkwell/internal/shellrun"
)

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inkwelld: load config: %v\n", err)
		os.Exit(1)
	}

	if err := shellrun.Run(context.Background(), cfg, shellrun.Options{}); err != nil {
		fmt.Fprintf(os.Stderr, "inkwelld: %v\n", err)
		os.Exit(1)
	}
}
