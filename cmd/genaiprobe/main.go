package main

import "github.com/diogo/genaiprobe/internal/commands"

func main() {
	commands.Execute()
}
