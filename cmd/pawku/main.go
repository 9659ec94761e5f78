// Command pawku runs the desktop pet and restores what it did.
package main

import "github.com/mesh-intelligence/pawku/internal/cli"

func main() {
	cli.Execute()
}
