package main

import "github.com/cameronsjo/gantry/internal/cmd"

func main() {
	cmd.Execute()
}
