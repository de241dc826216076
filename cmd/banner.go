package cmd

import (
	"bytes"
	"os"

	"github.com/dimiro1/banner"
)

func printBanner() {
	tpl := "{{ .Title \"INTERVIEW\" \"\" 0 }}\nVersion: " + version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}
