package main

import (
	"fmt"
	"os"

	_ "time/tzdata"

	"chancehr/internal/app/server"
)

func main() {
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
		os.Exit(1)
	}
}
