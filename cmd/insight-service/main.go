package main

import (
	"os"

	"github.com/mindloom/mindloom/server/insightservice"
)

func main() {
	if err := insightservice.Run(); err != nil {
		os.Exit(1)
	}
}
