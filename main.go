package main

import "github.com/AbrarAhmad001/antigravity-budget/cmd"

func main() {
	cmd.Execute()
}
