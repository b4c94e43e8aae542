// Package testutil provides utilities for golden file testing.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// UpdateGoldens controls whether to update golden files.
// Set via environment variable: UPDATE_GOLDENS=true go test ./...
var UpdateGoldens = os.Getenv("UPDATE_GOLDENS") == "true"

// GoldenPath returns the path to a golden file relative to the
// calling test's package directory.
func GoldenPath(feature, name string) string {
	return filepath.Join("testdata", feature, name+".golden")
}

// CompareWithGolden compares generated text against a golden file,
// normalizing trailing whitespace per line so editor trims don't churn
// the files.
func CompareWithGolden(t *testing.T, feature, name, actual string) {
	t.Helper()

	goldenPath := GoldenPath(feature, name)
	normalized := normalize(actual)

	if UpdateGoldens {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			t.Fatalf("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, []byte(normalized), 0o644); err != nil {
			t.Fatalf("failed to write golden file: %v", err)
		}
		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("golden file does not exist: %s\nRun with UPDATE_GOLDENS=true to create", goldenPath)
		}
		t.Fatalf("failed to read golden file: %v", err)
	}

	if diff := cmp.Diff(normalize(string(expected)), normalized); diff != "" {
		t.Errorf("golden file mismatch for %s/%s (-want +got):\n%s", feature, name, diff)
	}
}

func normalize(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	out := strings.Join(lines, "\n")
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}
