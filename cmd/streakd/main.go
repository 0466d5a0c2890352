package main

import (
	"fmt"
	"os"
	"streakd/internal/di"
	"streakd/internal/structures"
)

func main() {
	cmd := newRootCommand(func(flags *structures.CliFlags) error {
		_, err := di.InitApp(flags)
		return err
	})
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "streakd: %s\n", err)
		os.Exit(1)
	}
}
