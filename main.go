package main

import (
	"os"

	"hallyu-journalist/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
