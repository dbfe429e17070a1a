package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newInputCmd(t *testing.T, file, stdin string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.Flags().StringP("file", "f", "", "")
	if file != "" {
		if err := cmd.Flags().Set("file", file); err != nil {
			t.Fatal(err)
		}
	}
	cmd.SetIn(strings.NewReader(stdin))
	return cmd
}

func TestReadInput(t *testing.T) {
	t.Parallel()

	got, err := readInput(newInputCmd(t, "", ""), []string{"breaking", "news"})
	if err != nil || got != "breaking news" {
		t.Fatalf("args: got %q, %v", got, err)
	}

	got, err = readInput(newInputCmd(t, "-", "from stdin"), nil)
	if err != nil || got != "from stdin" {
		t.Fatalf("stdin: got %q, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "article.txt")
	if err := os.WriteFile(path, []byte("from file"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = readInput(newInputCmd(t, path, ""), nil)
	if err != nil || got != "from file" {
		t.Fatalf("file: got %q, %v", got, err)
	}

	if _, err := readInput(newInputCmd(t, "", ""), nil); err == nil {
		t.Fatal("expected error without input")
	}
}
