// Command artixinstall guides an Artix Linux base installation.
package main

import "artixinstall/internal/cli"

func main() {
	cli.Execute()
}
