package main

import (
	"errors"
	"log"
	"os"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := Execute(); err != nil {
		if errors.Is(err, errStepFailures) {
			log.Printf("[!] %v", err)
			os.Exit(2)
		}
		log.Printf("[-] %v", err)
		os.Exit(1)
	}
}
