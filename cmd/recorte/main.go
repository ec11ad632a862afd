package main

import (
	"os"

	"horse.fit/recorte/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
