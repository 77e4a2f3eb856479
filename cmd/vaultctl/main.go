package main

import (
	"os"

	"github.com/dmitrijs2005/passvault/internal/vaultctl"
)

func main() {
	os.Exit(vaultctl.Execute())
}
