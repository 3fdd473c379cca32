// framerelay holds the most recent camera frame posted by a client, serves
// it back on demand and relays transcription requests to Gemini.
package main

import (
	"os"

	"github.com/teslashibe/framerelay/cmd/framerelay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
