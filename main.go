package main

import "github.com/vietdv277/cwtail/cmd"

func main() {
	cmd.Execute()
}
