package control

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jward/control/internal/snapshot"
)

// benchJSSource builds a JavaScript file with n annotated functions.
func benchJSSource(n int) []byte {
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, "// control BENCH-%d\n", i)
		fmt.Fprintf(&b, "function handler%d(req, res) {\n", i)
		fmt.Fprintf(&b, "  const body = JSON.parse(req.body);\n")
		fmt.Fprintf(&b, "  // plain comment\n")
		fmt.Fprintf(&b, "  return res.send({ id: %d, ok: body.ok });\n", i)
		fmt.Fprintf(&b, "}\n\n")
	}
	return []byte(b.String())
}

func BenchmarkExtractSource(b *testing.B) {
	src := benchJSSource(200)
	e, err := New("javascript")
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		regions, err := e.ExtractSource(ctx, "bench.js", src)
		if err != nil {
			b.Fatal(err)
		}
		if len(regions) != 200 {
			b.Fatalf("got %d regions, want 200", len(regions))
		}
	}
}

func benchProject(b *testing.B, files int) string {
	b.Helper()
	root := b.TempDir()
	src := benchJSSource(20)
	for i := range files {
		path := filepath.Join(root, fmt.Sprintf("pkg%02d", i%8), fmt.Sprintf("file%03d.js", i))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			b.Fatal(err)
		}
		if err := os.WriteFile(path, src, 0o644); err != nil {
			b.Fatal(err)
		}
	}
	return root
}

func BenchmarkExtractDirectory_Serial(b *testing.B) {
	root := benchProject(b, 64)
	e, err := New("javascript")
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ResetTimer()
	for b.Loop() {
		if _, err := e.ExtractDirectory(ctx, root); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkExtractDirectory_Parallel(b *testing.B) {
	root := benchProject(b, 64)
	e, err := New("javascript", WithParallel(true))
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	b.ResetTimer()
	for b.Loop() {
		if _, err := e.ExtractDirectory(ctx, root); err != nil {
			b.Fatal(err)
		}
	}
}

func benchSnapshot(b *testing.B) Snapshot {
	b.Helper()
	e, err := New("javascript")
	if err != nil {
		b.Fatal(err)
	}
	regions, err := e.ExtractSource(context.Background(), "bench.js", benchJSSource(500))
	if err != nil {
		b.Fatal(err)
	}
	return regions
}

func BenchmarkSnapshotRoundTrip(b *testing.B) {
	s := benchSnapshot(b)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		data, err := snapshot.Encode(s)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := snapshot.Decode(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDiff(b *testing.B) {
	prev := benchSnapshot(b)
	next := make(Snapshot, len(prev))
	copy(next, prev)
	// Shift every tenth region.
	for i := 0; i < len(next); i += 10 {
		next[i].Start.Row++
	}

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		c := Diff(prev, next)
		if len(c.Added) != len(prev)/10 {
			b.Fatalf("got %d added", len(c.Added))
		}
	}
}
