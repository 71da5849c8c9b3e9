package main

import "github.com/snowmeltarcade/pfbuild/cmd/pfbuild/internal"

func main() {
	internal.Execute()
}
