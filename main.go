package main

import (
	"github.com/pyneda/sukyan-fileupload/cmd"
	"github.com/pyneda/sukyan-fileupload/internal/config"
)

func main() {
	config.LoadConfig()
	cmd.Execute()
}
