package main

import (
	"context"
	"os"

	"github.com/grovetools/widgetdeck/cmd"
)

func main() {
	if err := cmd.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
