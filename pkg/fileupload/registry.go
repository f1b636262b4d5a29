package fileupload

import (
	"embed"
	"fmt"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

//go:embed vectors/*
var localVectors embed.FS

type FileParameterDefinition struct {
	Extension          string             `yaml:"extension,omitempty" json:"extension,omitempty"`
	ContentType        string             `yaml:"content_type,omitempty" json:"content_type,omitempty"`
	ExtensionOperation ExtensionOperation `yaml:"extension_operation,omitempty" json:"extension_operation,omitempty"`
	NullByteSuffix     string             `yaml:"null_byte_suffix,omitempty" json:"null_byte_suffix,omitempty"`
}

// VectorDefinition is the YAML form of an attack vector
type VectorDefinition struct {
	Name           string                    `yaml:"name" json:"name"`
	Title          string                    `yaml:"title" json:"title"`
	Description    string                    `yaml:"description" json:"description"`
	Remediation    string                    `yaml:"remediation" json:"remediation"`
	IssueCode      string                    `yaml:"issue_code" json:"issue_code"`
	Severity       string                    `yaml:"severity" json:"severity"`
	CWE            int                       `yaml:"cwe" json:"cwe"`
	Payload        string                    `yaml:"payload" json:"payload"`
	Matcher        MatcherDefinition         `yaml:"matcher" json:"matcher"`
	FileParameters []FileParameterDefinition `yaml:"file_parameters" json:"file_parameters"`
}

// Build turns the definition into a vector, drawing file parameter tokens from rnd
func (d VectorDefinition) Build(rnd *rand.Rand) (AttackVector, error) {
	payload := []byte(d.Payload)
	matcher, err := d.Matcher.Build(payload)
	if err != nil {
		return AttackVector{}, fmt.Errorf("vector %s: %w", d.Name, err)
	}
	vector := AttackVector{
		Name:        d.Name,
		Title:       d.Title,
		Description: strings.TrimSpace(d.Description),
		Remediation: strings.TrimSpace(d.Remediation),
		IssueCode:   d.IssueCode,
		Severity:    NewSeverity(d.Severity),
		CWE:         d.CWE,
		Payload:     payload,
		Matcher:     matcher,
	}
	for _, fp := range d.FileParameters {
		param := NewFileParameter(fp.Extension, fp.ContentType, fp.ExtensionOperation, rnd)
		if fp.NullByteSuffix != "" {
			param = param.WithNullByteSuffix(fp.NullByteSuffix)
		}
		vector.FileParameters = append(vector.FileParameters, param)
	}
	if err := vector.Validate(); err != nil {
		return AttackVector{}, err
	}
	return vector, nil
}

func decodeDefinition(data []byte) (VectorDefinition, error) {
	var def VectorDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return def, err
	}
	if def.Name == "" {
		return def, fmt.Errorf("vector definition without name")
	}
	return def, nil
}

func isYAMLFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// LoadLocalDefinitions returns the built-in vector definitions, sorted by file name
func LoadLocalDefinitions() ([]VectorDefinition, error) {
	entries, err := localVectors.ReadDir("vectors")
	if err != nil {
		return nil, err
	}
	var definitions []VectorDefinition
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		data, err := localVectors.ReadFile(path.Join("vectors", entry.Name()))
		if err != nil {
			return nil, err
		}
		def, err := decodeDefinition(data)
		if err != nil {
			return nil, fmt.Errorf("built-in vector %s: %w", entry.Name(), err)
		}
		definitions = append(definitions, def)
	}
	return definitions, nil
}

// LoadUserDefinitions reads every YAML vector definition under dir. Files that
// cannot be decoded are logged and skipped.
func LoadUserDefinitions(dir string) ([]VectorDefinition, error) {
	var definitions []VectorDefinition
	err := filepath.Walk(dir, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isYAMLFile(info.Name()) {
			return nil
		}
		data, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}
		def, err := decodeDefinition(data)
		if err != nil {
			log.Error().Err(err).Str("file", filePath).Msg("Failed to load file upload vector")
			return nil
		}
		definitions = append(definitions, def)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return definitions, nil
}

// mergeDefinitions gives priority to user definitions with the same name.
// Built-in order is kept, new user vectors go last.
func mergeDefinitions(local, user []VectorDefinition) []VectorDefinition {
	merged := append([]VectorDefinition(nil), local...)
	index := make(map[string]int, len(merged))
	for i, def := range merged {
		index[def.Name] = i
	}
	for _, def := range user {
		if i, ok := index[def.Name]; ok {
			merged[i] = def
			continue
		}
		index[def.Name] = len(merged)
		merged = append(merged, def)
	}
	return merged
}

// LoadDefinitions returns the built-in definitions merged with the ones found in dir, if any
func LoadDefinitions(dir string) ([]VectorDefinition, error) {
	local, err := LoadLocalDefinitions()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return local, nil
	}
	user, err := LoadUserDefinitions(dir)
	if err != nil {
		return nil, err
	}
	return mergeDefinitions(local, user), nil
}

// Registry holds the attack vectors available to a scan, in a stable order
type Registry struct {
	vectors []AttackVector
	index   map[string]int
}

func NewRegistry(definitions []VectorDefinition, rnd *rand.Rand) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(definitions))}
	for _, def := range definitions {
		vector, err := def.Build(rnd)
		if err != nil {
			return nil, err
		}
		if _, exists := r.index[vector.Name]; exists {
			return nil, fmt.Errorf("duplicated vector name %s", vector.Name)
		}
		r.index[vector.Name] = len(r.vectors)
		r.vectors = append(r.vectors, vector)
	}
	return r, nil
}

// LoadRegistry builds a registry with the built-in vectors and those found in dir
func LoadRegistry(dir string, rnd *rand.Rand) (*Registry, error) {
	definitions, err := LoadDefinitions(dir)
	if err != nil {
		return nil, err
	}
	return NewRegistry(definitions, rnd)
}

func (r *Registry) Get(name string) (AttackVector, bool) {
	i, ok := r.index[name]
	if !ok {
		return AttackVector{}, false
	}
	return r.vectors[i], true
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.vectors))
	for _, v := range r.vectors {
		names = append(names, v.Name)
	}
	return names
}

func (r *Registry) Vectors() []AttackVector {
	return append([]AttackVector(nil), r.vectors...)
}

// Select returns the named vectors in registry order. No names means all of them.
func (r *Registry) Select(names []string) ([]AttackVector, error) {
	if len(names) == 0 {
		return r.Vectors(), nil
	}
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := r.index[name]; !ok {
			return nil, fmt.Errorf("unknown file upload vector %q, available: %s", name, strings.Join(r.Names(), ", "))
		}
		wanted[name] = true
	}
	var selected []AttackVector
	for _, v := range r.vectors {
		if wanted[v.Name] {
			selected = append(selected, v)
		}
	}
	return selected, nil
}
