package main

import "github.com/notargets/diffusion2d/cmd"

func main() {
	cmd.Execute()
}
