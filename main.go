package main

import "github.com/resaleh-labs/resaleh/cmd"

func main() {
	cmd.Execute()
}
