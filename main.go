package main

import "github.com/khanhnv2901/siteaudit/cmd"

var execCmd = cmd.Execute

func main() {
	execCmd()
}
