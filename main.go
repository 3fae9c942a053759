package main

import "github.com/tiletrack/tiletrack-go/cmd"

func main() {
	cmd.Execute()
}
