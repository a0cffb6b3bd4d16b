package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/mung"

	"github.com/ardnew/eager/pkg"
)

const (
	// baseConfig is the base name of the configuration file.
	baseConfig = "config.yaml"
	// baseRules is the rules directory under the configuration directory.
	baseRules = "rules"
)

// defaultDirMode is the default permission mode for created directories.
var defaultDirMode os.FileMode = 0o700

// ruleExts lists the file extensions read from a rules directory.
var ruleExts = []string{".eager", ".yaml", ".yml"}

// basePrefix returns the name used for the configuration and cache
// directories and the prefix of environment variables.
//
// It is the base name of the executable unless a substitution applies:
//   - "__debug_bin" (dlv output) becomes [pkg.Name]
//   - leading dots are removed
var basePrefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		if exe, err := os.Executable(); err == nil {
			id = exe
		}

		id = strings.TrimSuffix(filepath.Base(id), filepath.Ext(filepath.Base(id)))

		for rex, rep := range map[*regexp.Regexp]string{
			regexp.MustCompile(`^__debug_bin\d+$`): pkg.Name,
			regexp.MustCompile(`^\.+`):             "",
		} {
			id = rex.ReplaceAllString(id, rep)
		}

		if id == "" {
			return pkg.Name
		}

		return id
	},
)

// envPrefix returns the upper-case prefix of environment variables.
func envPrefix() string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(basePrefix())) + "_"
}

// userDir resolves a per-user base directory, falling back to a dot
// directory under home and finally the working directory.
func userDir(primary func() (string, error), dot string) string {
	dir, err := primary()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, dot)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, basePrefix())
}

var configDir = sync.OnceValue(func() string { return userDir(os.UserConfigDir, ".config") })

// cacheDir holds transient files such as REPL history and profiles.
var cacheDir = sync.OnceValue(func() string { return userDir(os.UserCacheDir, ".cache") })

// configPath joins elem onto the configuration directory.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}

// rulesPath returns the PATH-like list of rule directories: those named by
// the RULES_PATH environment variable first, then the rules directory under
// the configuration directory. Directories that do not exist are dropped.
func rulesPath() string {
	return mung.Make(
		mung.WithSubjectItems(configPath(baseRules)),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(filepath.SplitList(os.Getenv(envPrefix()+"RULES_PATH"))...),
		mung.WithFilter(isDir),
	).String()
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

// searchRules returns the rule files found in each directory of path, in
// path order and sorted by name within a directory.
func searchRules(path string) []string {
	var files []string

	for _, dir := range filepath.SplitList(path) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}

			if slices.Contains(ruleExts, strings.ToLower(filepath.Ext(e.Name()))) {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
	}

	return files
}
