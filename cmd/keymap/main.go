package main

import "github.com/keymapio/keymap/cmd/keymap/cmd"

func main() {
	cmd.Execute()
}
