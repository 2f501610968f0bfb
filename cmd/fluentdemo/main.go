// fluentdemo runs a small middleware-instrumented agent pipeline from
// the command line.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
