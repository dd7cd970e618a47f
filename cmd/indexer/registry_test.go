package main

import (
	"bytes"
	"strings"
	"testing"

	"vaultIndexer/internal/contracts"
)

func TestPrintRegistry(t *testing.T) {
	reg, _, err := buildDecoder(contracts.DefaultSpecs())
	if err != nil {
		t.Fatalf("build decoder: %v", err)
	}

	var buf bytes.Buffer
	if err := printRegistry(&buf, reg); err != nil {
		t.Fatalf("print registry: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"CONTRACT", "Deposited", "OracleSignalUpdated", "OrderPlaced", contracts.TreasuryVault} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
