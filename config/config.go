package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/masmgr/refscan-go/internal/git"
	"github.com/masmgr/refscan-go/internal/refdiff"
)

// Config is the root configuration structure.
type Config struct {
	Repository RepositoryConfig `json:"repository" yaml:"repository"`
	Engine     EngineConfig     `json:"engine" yaml:"engine"`
	Export     ExportConfig     `json:"export" yaml:"export"`
	Policy     PolicyConfig     `json:"policy" yaml:"policy"`
	Filters    FilterConfig     `json:"filters" yaml:"filters"`
	Bugfix     BugfixConfig     `json:"bugfix" yaml:"bugfix"`
	SZZ        SZZConfig        `json:"szz" yaml:"szz"`
}

// RepositoryConfig says which repository to analyse and how to walk it.
type RepositoryConfig struct {
	URL         string `json:"url" yaml:"url"`
	WorkDir     string `json:"workDir" yaml:"workDir"`         // Default: temp/<repo-name>
	StartRef    string `json:"startRef" yaml:"startRef"`       // Default: "HEAD"
	MaxCommits  int    `json:"maxCommits" yaml:"maxCommits"`   // 0 = whole history
	FirstParent bool   `json:"firstParent" yaml:"firstParent"` // Follow only first parents
	Backend     string `json:"backend" yaml:"backend"`         // native | gitcli
}

// EngineConfig selects and tunes the refactoring detector.
type EngineConfig struct {
	Kind           string   `json:"kind" yaml:"kind"` // builtin | command
	Command        string   `json:"command" yaml:"command"`
	Args           []string `json:"args" yaml:"args"` // {repo}, {before}, {after} are expanded
	TimeoutSeconds int      `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	RenameScore    int      `json:"renameScore" yaml:"renameScore"`
}

// ExportConfig holds output options.
type ExportConfig struct {
	OutputPath string `json:"outputPath" yaml:"outputPath"` // Default: refactorings.csv
	Abbrev     int    `json:"abbrev" yaml:"abbrev"`         // Default: 40
	DBPath     string `json:"dbPath" yaml:"dbPath"`         // Optional SQLite store
	SkipTests  bool   `json:"skipTests" yaml:"skipTests"`   // Drop test/, itests/, testutils/ paths
}

// PolicyConfig holds failure handling options.
type PolicyConfig struct {
	OnDiffError string `json:"onDiffError" yaml:"onDiffError"` // skip | abort
}

// FilterConfig holds file path filtering options.
type FilterConfig struct {
	Include []string `json:"include" yaml:"include"`
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// BugfixConfig holds bugfix detection configuration.
type BugfixConfig struct {
	Patterns []string `json:"patterns" yaml:"patterns"` // Regex patterns for bugfix commit detection
	// IssuePattern extracts an issue key such as HIVE-1234 from fix messages.
	IssuePattern string `json:"issuePattern" yaml:"issuePattern"`
}

// SZZConfig holds the bug-introducing commit search options.
type SZZConfig struct {
	OutputPath string   `json:"outputPath" yaml:"outputPath"` // blamed lines CSV
	LabelsPath string   `json:"labelsPath" yaml:"labelsPath"` // optional sha,label CSV
	FileTypes  []string `json:"fileTypes" yaml:"fileTypes"`   // glob patterns of analysed sources
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Repository: RepositoryConfig{
			StartRef: "HEAD",
			Backend:  string(git.BackendNative),
		},
		Engine: EngineConfig{
			Kind:           string(refdiff.EngineBuiltin),
			Args:           []string{},
			TimeoutSeconds: 300,
			RenameScore:    refdiff.DefaultRenameScore,
		},
		Export: ExportConfig{
			OutputPath: "refactorings.csv",
			Abbrev:     40,
		},
		Policy: PolicyConfig{
			OnDiffError: string(refdiff.PolicySkip),
		},
		Filters: FilterConfig{
			Include: []string{},
			Exclude: []string{},
		},
		Bugfix: BugfixConfig{
			Patterns: []string{
				`\bfix(ed|es)?\b`,
				`\bbug\b`,
				`\bhotfix\b`,
				`\bpatch\b`,
			},
			IssuePattern: `\b[A-Z][A-Z0-9]+[-_][0-9]+\b`,
		},
		SZZ: SZZConfig{
			OutputPath: "szz.csv",
			FileTypes:  []string{"**/*.java", "**/*.g", "**/*.g4"},
		},
	}
}

// DefaultConfigName is the file init-config writes when no path is given.
const DefaultConfigName = ".refscan.yaml"

// configNames are the file names searched when no path is given.
var configNames = []string{".refscan.json", DefaultConfigName, ".refscan.yml"}

// LoadConfig loads configuration from a file, merging with defaults.
// YAML is used for .yaml and .yml files, JSON otherwise.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = findConfig()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

func findConfig() string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs, home)
	} else if envHome := os.Getenv("HOME"); envHome != "" {
		dirs = append(dirs, envHome)
	}
	for _, dir := range dirs {
		for _, name := range configNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// SaveConfig saves configuration to a file, as YAML or JSON by extension.
func SaveConfig(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Environment variables read by ApplyEnv.
const (
	EnvRepoURL    = "REFSCAN_REPO_URL"
	EnvWorkDir    = "REFSCAN_WORK_DIR"
	EnvOutput     = "REFSCAN_OUTPUT"
	EnvStartRef   = "REFSCAN_START_REF"
	EnvMaxCommits = "REFSCAN_MAX_COMMITS"
	EnvDB         = "REFSCAN_DB"
)

// ApplyEnv loads the given dotenv files (default .env; missing files are
// ignored) and then overrides the configuration from REFSCAN_* variables.
// Variables already set in the environment win over dotenv values.
func (c *Config) ApplyEnv(envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString(EnvRepoURL, &c.Repository.URL)
	setString(EnvWorkDir, &c.Repository.WorkDir)
	setString(EnvOutput, &c.Export.OutputPath)
	setString(EnvStartRef, &c.Repository.StartRef)
	setString(EnvDB, &c.Export.DBPath)

	if v, ok := os.LookupEnv(EnvMaxCommits); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", EnvMaxCommits, v)
		}
		c.Repository.MaxCommits = n
	}
	return nil
}

// MinAbbrev is the shortest revision prefix git itself accepts.
const MinAbbrev = 4

// Validate rejects unknown enumeration values and negative limits.
func (c *Config) Validate() error {
	if _, ok := git.ParseBackend(c.Repository.Backend); !ok {
		return fmt.Errorf("invalid backend %q (expected native or gitcli)", c.Repository.Backend)
	}
	kind, err := refdiff.ParseEngineKind(c.Engine.Kind)
	if err != nil {
		return err
	}
	if kind == refdiff.EngineCommand && strings.TrimSpace(c.Engine.Command) == "" {
		return errors.New("engine kind command requires engine.command")
	}
	if _, err := refdiff.ParsePolicy(c.Policy.OnDiffError); err != nil {
		return err
	}
	if c.Repository.MaxCommits < 0 {
		return fmt.Errorf("maxCommits must be >= 0, got %d", c.Repository.MaxCommits)
	}
	if a := c.Export.Abbrev; a != 0 && (a < MinAbbrev || a > 40) {
		return fmt.Errorf("abbrev must be 0 (full SHA) or between %d and 40, got %d", MinAbbrev, a)
	}
	if c.Engine.TimeoutSeconds < 0 {
		return fmt.Errorf("timeoutSeconds must be >= 0, got %d", c.Engine.TimeoutSeconds)
	}
	if c.Engine.RenameScore < 0 || c.Engine.RenameScore > 100 {
		return fmt.Errorf("renameScore must be between 0 and 100, got %d", c.Engine.RenameScore)
	}
	if strings.TrimSpace(c.Export.OutputPath) == "" {
		return errors.New("outputPath must not be empty")
	}
	return nil
}

// ResolvedWorkDir returns the clone destination: WorkDir when set, otherwise
// temp/<repo-name> derived from the repository URL.
func (c *Config) ResolvedWorkDir() string {
	if c.Repository.WorkDir != "" {
		return c.Repository.WorkDir
	}
	return filepath.Join("temp", RepoNameFromURL(c.Repository.URL))
}

// EngineTimeout returns the per-invocation engine timeout.
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Engine.TimeoutSeconds) * time.Second
}

// RepoNameFromURL returns the last path segment of a repository URL without
// a .git suffix, e.g. "hive" for https://github.com/apache/hive.git.
func RepoNameFromURL(url string) string {
	name := strings.TrimRight(strings.TrimSpace(url), "/\\")
	if i := strings.LastIndexAny(name, "/\\:"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".git")
	if name == "" || name == "." || name == ".." {
		return "repo"
	}
	return name
}
