// The main package for the atlas executable.
package main

import "github.com/JakeFAU/bible-atlas-api/cmd"

func main() {
	cmd.Execute()
}
