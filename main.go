package main

import "github.com/kozaktomas/smartcam/cmd"

func main() {
	cmd.Execute()
}
