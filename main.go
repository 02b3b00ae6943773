package main

import "github.com/HSousa1987/Lavandaria-sub001/cmd"

func main() {
	cmd.Execute()
}
