package trigram

import (
	"go/build"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const wishSource = "I wish I may I wish I might"

// newTestGenerator returns a generator that has been fed sources in order.
func newTestGenerator(t *testing.T, opts []Option, sources ...string) *Generator {
	t.Helper()
	g := NewGenerator(opts...)
	for _, src := range sources {
		if err := g.AddSource(src); err != nil {
			t.Fatalf("AddSource(%q) error = %v", src, err)
		}
	}
	return g
}

// newFinalizedGenerator is a convenience helper that also finalizes the generator.
func newFinalizedGenerator(t *testing.T, seed int64, sources ...string) *Generator {
	t.Helper()
	g := newTestGenerator(t, []Option{WithSeed(seed)}, sources...)
	g.Finalize()
	return g
}

var (
	benchmarkCorpus string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus reads Go source files to create a corpus for benchmarking.
func createBenchmarkCorpus() string {
	corpusOnce.Do(func() {
		var sb strings.Builder
		goRoot := build.Default.GOROOT
		filesToRead := []string{
			filepath.Join(goRoot, "src/net/http/server.go"),
			filepath.Join(goRoot, "src/go/parser/parser.go"),
			filepath.Join(goRoot, "src/encoding/json/encode.go"),
		}

		for _, file := range filesToRead {
			content, err := os.ReadFile(file)
			if err != nil {
				benchmarkCorpus = "this is a fallback corpus for benchmarking. it is not very long but will prevent a crash. "
				return
			}
			sb.Write(content)
			sb.WriteString("\n")
		}
		benchmarkCorpus = sb.String()
	})
	return benchmarkCorpus
}
