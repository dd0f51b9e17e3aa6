package main

import "github.com/YvanMazy/Memorized/cmd"

func main() {
	cmd.Execute()
}
