// Command permkit evaluates access-control decisions against a PERM model.
package main

import "github.com/Sentinel-Gate/permkit/cmd/permkit/cmd"

func main() {
	cmd.Execute()
}
