// Command spanrespond inspects content negotiation: which format a given Accept header
// selects, and which formats the content engine can encode.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
