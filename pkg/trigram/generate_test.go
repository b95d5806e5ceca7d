package trigram

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"testing"
)

func TestGenerate(t *testing.T) {
	g := newFinalizedGenerator(t, 2, wishSource)

	output, err := g.Generate(WithMaxTokens(100))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if expected := "I may I wish I may I wish I might"; output != expected {
		t.Errorf("Generate() = %q, want %q", output, expected)
	}
}

func TestGenerate_Seeds(t *testing.T) {
	testCases := []struct {
		name      string
		seed      int64
		maxTokens int
		expected  string
	}{
		{name: "First pair", seed: 0, maxTokens: 100, expected: "I wish I may I wish I might"},
		{name: "Second pair", seed: 1, maxTokens: 100, expected: "wish I may I wish I might"},
		{name: "Seed wraps around pair count", seed: 6, maxTokens: 100, expected: "I may I wish I may I wish I might"},
		{name: "Negative seed uses absolute value", seed: -2, maxTokens: 100, expected: "I may I wish I may I wish I might"},
		{name: "Minimum int64 seed", seed: math.MinInt64, maxTokens: 100, expected: "I wish I may I wish I might"},
		{name: "Stopped by maxTokens", seed: 2, maxTokens: 5, expected: "I may I wish I"},
		{name: "Start pair is always whole", seed: 2, maxTokens: 1, expected: "I may"},
		{name: "Zero maxTokens", seed: 2, maxTokens: 0, expected: ""},
		{name: "Negative maxTokens", seed: 2, maxTokens: -4, expected: ""},
	}

	g := newFinalizedGenerator(t, 0, wishSource)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := g
			if tc.seed != 0 {
				g = newFinalizedGenerator(t, tc.seed, wishSource)
			}
			output, err := g.Generate(WithMaxTokens(tc.maxTokens))
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if output != tc.expected {
				t.Errorf("Generate() = %q, want %q", output, tc.expected)
			}
		})
	}
}

func TestGenerate_Punctuation(t *testing.T) {
	g := newFinalizedGenerator(t, 0, "Hello, world! Hello, there.")

	output, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if expected := "Hello, world! Hello, there."; output != expected {
		t.Errorf("Generate() = %q, want %q", output, expected)
	}
}

func TestGenerate_RoundRobin(t *testing.T) {
	// "a b" is followed by x, y and z; each visit takes the next one in turn.
	g := newFinalizedGenerator(t, 0, "a b x a b y a b z a b")

	output, err := g.Generate(WithMaxTokens(100))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if expected := "a b x a b y a b z a b x a b y a b z"; !strings.HasPrefix(output, expected) {
		t.Errorf("Generate() = %q, want prefix %q", output, expected)
	}

	// Cursors start over on every call.
	again, _ := g.Generate(WithMaxTokens(100))
	if again != output {
		t.Errorf("second Generate() = %q, want %q", again, output)
	}
}

func TestGenerate_Empty(t *testing.T) {
	g := newFinalizedGenerator(t, 3)
	output, err := g.Generate(WithMaxTokens(10))
	if err != nil {
		t.Fatalf("Generate on empty generator failed: %v", err)
	}
	if output != "" {
		t.Errorf("Generate() on empty generator = %q, want empty", output)
	}

	g = newFinalizedGenerator(t, 3, "too short")
	if output, _ = g.Generate(); output != "" {
		t.Errorf("Generate() with only short sources = %q, want empty", output)
	}
}

func TestGenerate_Unseeded(t *testing.T) {
	g := newTestGenerator(t, nil, wishSource)
	g.Finalize()

	output, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	possible := []string{
		"I wish I may I wish I might",
		"wish I may I wish I might",
		"I may I wish I may I wish I might",
		"may I wish I may I wish I might",
	}
	if !slices.Contains(possible, output) {
		t.Errorf("Generate() = %q, want one of %q", output, possible)
	}
}

func TestLifecycleErrors(t *testing.T) {
	g := newTestGenerator(t, []Option{WithSeed(2)}, wishSource)

	if _, err := g.Generate(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Generate before Finalize error = %v, want ErrInvalidState", err)
	}
	if _, err := g.Tokens(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Tokens before Finalize error = %v, want ErrInvalidState", err)
	}
	if g.Finalized() {
		t.Error("generator reports finalized after a rejected Generate")
	}

	g.Finalize()
	before := g.Transitions()
	err := g.AddSource("I wish I could")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("AddSource after Finalize error = %v, want ErrInvalidState", err)
	}
	if !strings.Contains(err.Error(), "cannot add source after finalize") {
		t.Errorf("unexpected error message %q", err.Error())
	}
	if after := g.Transitions(); !slices.EqualFunc(before, after, func(a, b Transition) bool {
		return a.Pair == b.Pair && slices.Equal(a.NextTokens, b.NextTokens)
	}) {
		t.Error("rejected AddSource changed the table")
	}
}

func TestFinalize_Idempotent(t *testing.T) {
	g := newFinalizedGenerator(t, 2, wishSource)
	first, _ := g.Generate()
	start := g.start

	g.Finalize()
	if g.start != start {
		t.Errorf("second Finalize changed the start pair")
	}
	second, _ := g.Generate()
	if first != second {
		t.Errorf("output after second Finalize = %q, want %q", second, first)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	corpus := createBenchmarkCorpus()
	var outputs []string
	for i := 0; i < 3; i++ {
		g := newFinalizedGenerator(t, 12345, corpus, wishSource)
		output, err := g.Generate(WithMaxTokens(200))
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		outputs = append(outputs, output)
	}
	if outputs[0] != outputs[1] || outputs[1] != outputs[2] {
		t.Errorf("seeded generation is not reproducible: %q", outputs)
	}
}

func TestGenerate_Concurrent(t *testing.T) {
	g := newFinalizedGenerator(t, 2, wishSource, "I wish I could fly, I wish I could sing.")
	expected, err := g.Generate()
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = g.Generate()
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if got != expected {
			t.Errorf("goroutine %d got %q, want %q", i, got, expected)
		}
	}
}

func TestTokens(t *testing.T) {
	g := newFinalizedGenerator(t, 2, wishSource)
	seq, err := g.Tokens(WithMaxTokens(100))
	if err != nil {
		t.Fatalf("Tokens failed: %v", err)
	}

	got := slices.Collect(seq)
	expected := strings.Fields("I may I wish I may I wish I might")
	if !slices.Equal(got, expected) {
		t.Errorf("Tokens() = %q, want %q", got, expected)
	}

	// Breaking early stops the walk.
	var firstThree []string
	for token := range seq {
		firstThree = append(firstThree, token)
		if len(firstThree) == 3 {
			break
		}
	}
	if !slices.Equal(firstThree, expected[:3]) {
		t.Errorf("first three tokens = %q, want %q", firstThree, expected[:3])
	}
}

func BenchmarkGenerate(b *testing.B) {
	g := NewGenerator(WithSeed(42))
	if err := g.AddSource(createBenchmarkCorpus()); err != nil {
		b.Fatal(err)
	}
	g.Finalize()

	for _, maxTokens := range []int{50, 500} {
		b.Run(fmt.Sprintf("MaxTokens%d", maxTokens), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				s, err := g.Generate(WithMaxTokens(maxTokens))
				b.SetBytes(int64(len(s)))
				if err != nil {
					b.Fatalf("Generate() failed: %v", err)
				}
			}
		})
	}
}
