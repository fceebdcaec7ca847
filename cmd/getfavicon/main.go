// Command getfavicon downloads the favicon of a web page.
package main

import (
	"fmt"
	"os"

	"github.com/ka2n/getfavicon/cli"
	"github.com/ka2n/getfavicon/log"
	"github.com/morikuni/failure/v2"
)

func main() {
	if err := cli.Run(); err != nil {
		var userMessage string
		if fmsg := failure.MessageOf(err); fmsg != "" {
			userMessage = fmsg.String()
		} else {
			userMessage = err.Error()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", userMessage)
		if os.Getenv(log.EnvDebug) != "" {
			// error code, context and call stack
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		}
		os.Exit(1)
	}
}
