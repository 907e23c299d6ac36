package main

import "meetflix-cli/cmd"

func main() {
	cmd.Execute()
}
