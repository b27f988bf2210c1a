package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	warn   = color.New(color.FgYellow)
	bad    = color.New(color.FgRed)
)

func banner(w io.Writer, title string) {
	brand.Fprintf(w, "forceview")
	subtle.Fprintf(w, " · %s\n", title)
}

func field(w io.Writer, name string, value interface{}) {
	fmt.Fprintf(w, "  %-14s %v\n", name+":", value)
}
