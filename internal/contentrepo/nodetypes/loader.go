package nodetypes

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/fulmenhq/janitor/pkg/logger"
)

// definitionPattern selects node type files inside a directory.
const definitionPattern = "**/NodeTypes*.{yaml,yml,toml}"

// Load reads node type definitions from files and directories and builds a
// manager. Files are merged in the order given, directory contents in
// lexical path order; a later definition of the same type deep-merges over
// an earlier one.
func Load(paths []string, postprocessors ...Postprocessor) (*Manager, error) {
	files, err := discover(paths)
	if err != nil {
		return nil, err
	}

	defs := Definitions{}
	for _, file := range files {
		fileDefs, err := readDefinitionFile(file)
		if err != nil {
			return nil, err
		}
		for name, raw := range fileDefs {
			defs[name] = mergeMaps(defs[name], raw)
		}
		logger.Debug("Loaded node type definitions", logger.String("file", file), logger.Int("types", len(fileDefs)))
	}

	return NewManager(defs, postprocessors...)
}

func discover(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("node type path %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(p), definitionPattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			files = append(files, filepath.Join(p, filepath.FromSlash(m)))
		}
	}
	return files, nil
}

func readDefinitionFile(path string) (Definitions, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading node types: %w", err)
	}

	raw := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s: unsupported file type", ErrInvalidDefinition, path)
	}

	defs := make(Definitions, len(raw))
	for name, v := range raw {
		if v == nil {
			defs[name] = map[string]interface{}{}
			continue
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %s: %s is not a mapping", ErrInvalidDefinition, path, name)
		}
		defs[name] = m
	}
	return defs, nil
}
