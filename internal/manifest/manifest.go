package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/microfront-bundle/internal/htmlrewrite"
	"github.com/shinji-kodama/microfront-bundle/internal/model"
)

// EnvManifest names the environment variable that points at an explicit
// manifest file. The --manifest flag takes precedence over it.
const EnvManifest = "MFBUNDLE_MANIFEST"

const (
	defaultEntry  = "index.html"
	defaultOutput = "dist"
)

// candidateNames lists manifest file names in lookup priority order.
var candidateNames = []string{
	"mfbundle.yaml",
	"mfbundle.yml",
	"mfbundle.jsonc",
	"mfbundle.json",
}

// Manifest is the on-disk bundle description. Paths are relative to the
// workspace root unless absolute.
type Manifest struct {
	// Entry is the development shell page. Default: index.html.
	Entry string `yaml:"entry,omitempty" json:"entry,omitempty"`

	// Output is the aggregated output directory. Default: dist.
	Output string `yaml:"output,omitempty" json:"output,omitempty"`

	// Strict makes partial copy failures fail the run.
	Strict bool `yaml:"strict,omitempty" json:"strict,omitempty"`

	// Overwrite controls whether existing destination files are replaced.
	// A pointer so an absent key can default to true.
	Overwrite *bool `yaml:"overwrite,omitempty" json:"overwrite,omitempty"`

	// Parallelism bounds concurrent sub-app copies; 0 means unbounded.
	Parallelism int `yaml:"parallelism,omitempty" json:"parallelism,omitempty"`

	Apps []App `yaml:"apps" json:"apps"`

	// Rewrites replaces the mapping derived from the apps' dev servers.
	Rewrites []model.Replacement `yaml:"rewrites,omitempty" json:"rewrites,omitempty"`

	// path is the file the manifest was loaded from; empty for Default().
	path string
}

// App is one sub-application entry in the manifest.
type App struct {
	Name string `yaml:"name" json:"name"`

	// Source is the sub-app's build output. Default: <name>/dist.
	Source string `yaml:"source,omitempty" json:"source,omitempty"`

	// Target is the destination below the output directory. Default: <name>.
	Target string `yaml:"target,omitempty" json:"target,omitempty"`

	// DevServer is the URL the shell page uses during development.
	DevServer string `yaml:"devServer,omitempty" json:"devServer,omitempty"`
}

// Default returns the built-in manifest: the three framework demo apps with
// the dev-server ports their Vite configs pin (vue 3001, react 3003,
// vanilla 3002), in the order the shell page references them.
func Default() *Manifest {
	return &Manifest{
		Entry:  defaultEntry,
		Output: defaultOutput,
		Apps: []App{
			{Name: "vue-app", DevServer: "http://localhost:3001/"},
			{Name: "react-app", DevServer: "http://localhost:3003/"},
			{Name: "vanilla-app", DevServer: "http://localhost:3002/"},
		},
	}
}

// Path returns the file the manifest was loaded from, or "" for the
// built-in default.
func (m *Manifest) Path() string {
	return m.path
}

// Find looks for a manifest file in root. It returns "" and no error when
// none of the candidate names exist.
func Find(root string) (string, error) {
	for _, name := range candidateNames {
		path := filepath.Join(root, name)
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("manifest path %s is a directory", path)
			}
			return path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	return "", nil
}

// Load reads and parses the manifest at path. The format is chosen by file
// extension: .yaml/.yml for YAML, .json/.jsonc for JSON with comments.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &model.ManifestError{Path: path, Err: err}
	}

	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &m)
	case ".json", ".jsonc":
		err = decodeJSONC(data, &m)
	default:
		err = fmt.Errorf("unsupported manifest extension %q (want .yaml, .yml, .json or .jsonc)", filepath.Ext(path))
	}
	if err != nil {
		return nil, &model.ManifestError{Path: path, Err: err}
	}

	m.path = path
	return &m, nil
}

func decodeYAML(data []byte, m *Manifest) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document decodes to io.EOF; treat it as an empty manifest so
	// validation reports the missing apps instead.
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func decodeJSONC(data []byte, m *Manifest) error {
	// Strip // and /* */ comments plus trailing commas before decoding.
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// Discover picks the manifest for a run. Precedence: explicit path (the
// --manifest flag), then the MFBUNDLE_MANIFEST environment variable, then a
// manifest file in root, then the built-in default.
func Discover(root, explicit string) (*Manifest, error) {
	path := explicit
	if path == "" {
		path = os.Getenv(EnvManifest)
	}
	if path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		return Load(path)
	}

	found, err := Find(root)
	if err != nil {
		return nil, &model.ManifestError{Err: err}
	}
	if found == "" {
		return Default(), nil
	}
	return Load(found)
}

// applyDefaults fills in every optional field in place.
func (m *Manifest) applyDefaults() {
	if m.Entry == "" {
		m.Entry = defaultEntry
	}
	if m.Output == "" {
		m.Output = defaultOutput
	}
	for i := range m.Apps {
		app := &m.Apps[i]
		if app.Source == "" && app.Name != "" {
			app.Source = filepath.Join(app.Name, "dist")
		}
		if app.Target == "" {
			app.Target = app.Name
		}
	}
}

// Resolve applies defaults, validates the manifest against root, and
// returns a plan with absolute paths. Validation failures are returned
// together as a single *model.ManifestError.
func (m *Manifest) Resolve(root string) (*model.BuildPlan, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &model.ManifestError{Path: m.path, Err: err}
	}

	m.applyDefaults()
	if problems := m.Validate(absRoot); len(problems) > 0 {
		msgs := make([]string, 0, len(problems))
		for _, p := range problems {
			msgs = append(msgs, p.Field+": "+p.Message)
		}
		return nil, &model.ManifestError{Path: m.path, Problems: msgs}
	}

	output := resolvePath(absRoot, m.Output)
	plan := &model.BuildPlan{
		RootDir:     absRoot,
		EntryHTML:   resolvePath(absRoot, m.Entry),
		OutputDir:   output,
		Overwrite:   m.Overwrite == nil || *m.Overwrite,
		Parallelism: m.Parallelism,
		Strict:      m.Strict,
	}

	for _, app := range m.Apps {
		plan.Apps = append(plan.Apps, model.SubAppSpec{
			Name:      app.Name,
			SourceDir: resolvePath(absRoot, app.Source),
			TargetDir: filepath.Join(output, filepath.FromSlash(app.Target)),
			DevServer: app.DevServer,
		})
	}

	if len(m.Rewrites) > 0 {
		plan.Rewrites = append([]model.Replacement(nil), m.Rewrites...)
	} else {
		plan.Rewrites = htmlrewrite.DefaultMapping(plan.Apps)
	}

	return plan, nil
}

// resolvePath makes p absolute relative to root.
func resolvePath(root, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
