package main

import (
	"os"

	"github.com/AdoDeveloper/cpe-system-sub000/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
