package main

import "github.com/stealthwatch/stealthwatch/cmd"

func main() {
	cmd.Execute()
}
