package main

import (
	"os"

	"github.com/GoAD-Admin/GoAD-Admin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
