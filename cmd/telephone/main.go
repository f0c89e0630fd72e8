package main

import (
	"os"

	"horse.fit/telephone/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
