package gen

import (
	"bytes"
	"testing"

	"github.com/dvloznov/fincrime-screener/internal/screening"
)

func TestWriteCSVOutputIsValidInput(t *testing.T) {
	var buf bytes.Buffer
	if err := New(42).WriteCSV(&buf, 25); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	batch, err := screening.Extract(&buf)
	if err != nil {
		t.Fatalf("generated batch failed extraction: %v", err)
	}
	if len(batch.Transactions) != 25 {
		t.Errorf("row count = %d, want 25", len(batch.Transactions))
	}
	want := []string{"industry", "channel"}
	if len(batch.OptionalColumns) != 2 || batch.OptionalColumns[0] != want[0] || batch.OptionalColumns[1] != want[1] {
		t.Errorf("optional columns = %v, want %v", batch.OptionalColumns, want)
	}
}

func TestGeneratorIsDeterministicPerSeed(t *testing.T) {
	var a, b bytes.Buffer
	if err := New(7).WriteCSV(&a, 10); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if err := New(7).WriteCSV(&b, 10); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if a.Len() == 0 || b.Len() == 0 {
		t.Fatal("empty output")
	}
	if a.String() != b.String() {
		t.Error("same seed produced different batches")
	}
}
