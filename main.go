package main

import "interviewassistant/cmd"

func main() {
	cmd.Execute()
}
