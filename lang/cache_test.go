package lang

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

const cacheSource = `
eager_macro_rules!{ $eager_1
	macro_rules! plus_1 { () => { + 1 }; }
}
eager!{ 2 plus_1!() plus_1!() }
`

func TestLoadRules_Cached(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	ctx := context.Background()

	first, err := LoadRules(ctx, strings.NewReader(cacheSource))
	if err != nil {
		t.Fatal(err)
	}

	second, err := LoadRules(ctx, strings.NewReader(cacheSource))
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Error("identical sources were parsed twice")
	}

	other, err := LoadRules(ctx, strings.NewReader(cacheSource+" "))
	if err != nil {
		t.Fatal(err)
	}

	if other == first {
		t.Error("different sources share a cache entry")
	}

	ClearCache()

	third, err := LoadRules(ctx, strings.NewReader(cacheSource))
	if err != nil {
		t.Fatal(err)
	}

	if third == first {
		t.Error("ClearCache kept the entry")
	}
}

func TestParseRules_Uncached(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	ctx := context.Background()

	for i := range 100 {
		src := cacheSource + strings.Repeat(" x", i)

		set, err := ParseRules(ctx, strings.NewReader(src))
		if err != nil {
			t.Fatal(err)
		}

		if len(set.Declarations) != 1 {
			t.Fatalf("declarations = %d, want 1", len(set.Declarations))
		}
	}

	if _, err := ParseRulesYAML(ctx, strings.NewReader("macros: [{name: a, rules: [{pattern: '()', template: '1'}]}]")); err != nil {
		t.Fatal(err)
	}

	if n := CacheLen(); n != 0 {
		t.Errorf("CacheLen = %d after uncached parses, want 0", n)
	}

	if _, err := LoadRules(ctx, strings.NewReader(cacheSource)); err != nil {
		t.Fatal(err)
	}

	if n := CacheLen(); n != 1 {
		t.Errorf("CacheLen = %d, want 1", n)
	}
}

func TestLoadRules_Expand(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	ctx := context.Background()

	set, err := LoadRules(ctx, strings.NewReader(cacheSource))
	if err != nil {
		t.Fatal(err)
	}

	macros, err := set.Macros()
	if err != nil {
		t.Fatal(err)
	}

	out, err := NewHost(NewRegistry(macros...)).Expand(ctx, set.Program)
	if err != nil {
		t.Fatal(err)
	}

	if diff := diffTokens(MustScan(`2 + 1 + 1`), out); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestLoadRules_Concurrent(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sets = map[*RuleSet]struct{}{}
	)

	for range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			set, err := LoadRules(context.Background(), strings.NewReader(cacheSource))
			if err != nil {
				t.Error(err)

				return
			}

			mu.Lock()
			sets[set] = struct{}{}
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(sets) != 1 {
		t.Errorf("got %d distinct rule sets, want 1", len(sets))
	}
}

func TestLoadRulesFile(t *testing.T) {
	ClearCache()
	t.Cleanup(ClearCache)

	ctx := context.Background()

	const yamlSource = `
macros:
  - name: one
    eager: true
    rules:
      - pattern: "()"
        template: "1"
`

	set, err := LoadRulesFile(ctx, "rules.YML", strings.NewReader(yamlSource))
	if err != nil {
		t.Fatal(err)
	}

	if len(set.Declarations) != 1 || set.Declarations[0].Name != "one" || set.Program != nil {
		t.Errorf("unexpected rule set %+v", set)
	}

	_, err = LoadRulesFile(ctx, "broken.rules", strings.NewReader(`macro_rules! m {`))
	if !errors.Is(err, ErrParse) {
		t.Errorf("got %v, want ErrParse", err)
	}

	// A cached failure is reported again.
	_, err = LoadRulesFile(ctx, "broken.rules", strings.NewReader(`macro_rules! m {`))
	if !errors.Is(err, ErrParse) {
		t.Errorf("got %v, want ErrParse", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestReadAll(t *testing.T) {
	data, err := readAll(bytes.NewReader([]byte("abc")))
	if err != nil || string(data) != "abc" {
		t.Errorf("readAll = %q, %v", data, err)
	}

	if _, err := readAll(failingReader{}); !errors.Is(err, ErrReadInput) {
		t.Errorf("got %v, want ErrReadInput", err)
	}
}
