package lang

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// RuleSet is a parsed rules source: its declarations and the program tokens
// found between them.
type RuleSet struct {
	Sentinel     string
	Declarations []Declaration
	Program      []Token
}

// Macros declares the macros of s.
func (s *RuleSet) Macros(opts ...Option) ([]*Macro, error) {
	return Declare(s.Sentinel, s.Declarations, opts...)
}

// ruleFormat selects the declaration syntax of a rules source.
type ruleFormat uint8

const (
	ruleFormatText ruleFormat = iota
	ruleFormatYAML
)

// formatOf returns the declaration syntax implied by a file name.
func formatOf(name string) ruleFormat {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return ruleFormatYAML
	}

	return ruleFormatText
}

// rulesCache maps a key derived from source content and options to a
// *cacheEntry.
//
//nolint:gochecknoglobals
var rulesCache sync.Map

type cacheEntry struct {
	once sync.Once
	set  *RuleSet
	err  error
}

// LoadRules reads and parses a text rules source. Sources with identical
// content are parsed once per process and share the returned [RuleSet],
// which must not be modified; see [ClearCache].
func LoadRules(ctx context.Context, r io.Reader, opts ...Option) (*RuleSet, error) {
	return loadRules(ctx, r, ruleFormatText, opts...)
}

// LoadRulesYAML is like [LoadRules] for YAML sources.
func LoadRulesYAML(ctx context.Context, r io.Reader, opts ...Option) (*RuleSet, error) {
	return loadRules(ctx, r, ruleFormatYAML, opts...)
}

// LoadRulesFile is like [LoadRules], choosing the syntax from the
// extension of name.
func LoadRulesFile(ctx context.Context, name string, r io.Reader, opts ...Option) (*RuleSet, error) {
	set, err := loadRules(ctx, r, formatOf(name), opts...)
	if err != nil {
		return nil, WrapError(err).With(slog.String("file", name))
	}

	return set, nil
}

// ParseRules reads and parses a text rules source without consulting or
// filling the cache. It suits one-off sources such as requests and typed
// lines, whose number is unbounded.
func ParseRules(ctx context.Context, r io.Reader, opts ...Option) (*RuleSet, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	return parseRuleSet(ctx, data, ruleFormatText, opts...)
}

// ParseRulesYAML is like [ParseRules] for YAML sources.
func ParseRulesYAML(ctx context.Context, r io.Reader, opts ...Option) (*RuleSet, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	return parseRuleSet(ctx, data, ruleFormatYAML, opts...)
}

func loadRules(ctx context.Context, r io.Reader, format ruleFormat, opts ...Option) (*RuleSet, error) {
	o := makeOptions(opts...)

	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	key := cacheKey(data, format, o.optionsKey)

	value, hit := rulesCache.LoadOrStore(key, new(cacheEntry))
	entry, _ := value.(*cacheEntry)

	o.logger.TraceContext(
		ctx,
		"rules cache lookup",
		slog.String("key", key),
		slog.Bool("cache_hit", hit),
		slog.Int("source_bytes", len(data)),
	)

	entry.once.Do(func() {
		entry.set, entry.err = parseRuleSet(ctx, data, format, opts...)
	})

	if entry.err != nil {
		return nil, entry.err
	}

	return entry.set, nil
}

func parseRuleSet(ctx context.Context, data []byte, format ruleFormat, opts ...Option) (*RuleSet, error) {
	if format == ruleFormatYAML {
		decls, sentinel, err := ParseDeclarationsYAML(ctx, data)
		if err != nil {
			return nil, err
		}

		return &RuleSet{Sentinel: sentinel, Declarations: decls}, nil
	}

	tokens, err := Scan(ctx, string(data), opts...)
	if err != nil {
		return nil, err
	}

	decls, sentinel, program, err := ParseDeclarations(tokens)
	if err != nil {
		return nil, err
	}

	return &RuleSet{Sentinel: sentinel, Declarations: decls, Program: program}, nil
}

// cacheKey hashes the source together with the options that affect parsing.
func cacheKey(data []byte, format ruleFormat, key optionsKey) string {
	h := xxh3.New()

	_, _ = h.Write(data)
	_, _ = h.WriteString(strconv.Itoa(int(format)))
	_, _ = h.WriteString(key.sentinel)

	return strconv.FormatUint(h.Sum64(), 36)
}

// readAll reads r to the end with asynchronous read-ahead.
func readAll(r io.Reader) ([]byte, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err)
	}

	return data, nil
}

// CacheLen returns the number of cached rule sets.
func CacheLen() int {
	n := 0

	rulesCache.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}

// ClearCache discards every cached rule set.
func ClearCache() {
	rulesCache.Clear()
}
