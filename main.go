package main

import (
	"os"

	"github.com/LieutenantJoseph/flashfungi/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
