package main

import "github.com/campuseats/spider/cmd"

func main() {
	cmd.Execute()
}
