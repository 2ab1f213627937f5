package main

import (
	"os"

	"github.com/okian/drawtree/internal/tracesim"
)

func main() {
	if err := tracesim.Execute(); err != nil {
		os.Stderr.WriteString("trace-sim: " + err.Error() + "\n")
		os.Exit(1)
	}
}
