package main

import "github.com/idrop/idb/cmd"

func main() {
	cmd.Execute()
}
