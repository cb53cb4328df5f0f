package main

import "github.com/naka-gawa/issue-slots/cmd"

func main() {
	cmd.Execute()
}
