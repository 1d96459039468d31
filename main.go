package main

import "github.com/chazu/truss/cmd"

func main() {
	cmd.Execute()
}
