package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"vaultIndexer/internal/registry"
)

func printRegistry(out io.Writer, reg *registry.Registry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTRACT\tADDRESS\tEVENT\tTYPE\tTOPIC0")
	for _, row := range reg.List() {
		kind := string(row.Kind)
		if kind == "" {
			kind = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", row.Contract, row.Address.Hex(), row.Name, kind, row.Hash.Hex())
	}
	return tw.Flush()
}
