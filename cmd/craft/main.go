package main

import "github.com/mvp-joe/craft/internal/cli"

func main() {
	cli.Execute()
}
