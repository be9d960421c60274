package main

import "os"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}
