package main

import "github.com/econest/web/cmd/econest-web/cmd"

func main() {
	cmd.Execute()
}
