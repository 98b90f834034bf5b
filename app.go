package main

import "github.com/masmgr/refscan-go/cmd"

func main() {
	cmd.Run()
}
