package main

import (
	"log"

	"github.com/firmcore/fwtables/flag"
)

func main() {
	if err := flag.Parse(); err != nil {
		log.Fatal(err)
	}
}
