package main

import (
	"log"
	"os"

	"github.com/kottesh/amuhacks/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
