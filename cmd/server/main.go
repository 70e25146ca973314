package main

import (
	"github.com/nguyentranbao-ct/feed-client/cmd"
)

func main() {
	cmd.Execute()
}
