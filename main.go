package main

import "github.com/vibast-solutions/ms-go-onlearn-auth/cmd"

func main() {
	cmd.Execute()
}
