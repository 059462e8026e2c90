package main

import "github.com/zjrosen/pitchplay/cmd"

func main() {
	cmd.Execute()
}
