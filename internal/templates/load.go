package templates

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/tailscale/hujson"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/alfredjeanlab/scout/internal/model"
)

// Extensions lists the file suffixes treated as template definitions.
var Extensions = []string{".json", ".json5", ".jsonc"}

// Parse decodes one JSON template definition. Comments and trailing commas
// are accepted; the result must pass model.Template.Validate.
func Parse(data []byte) (*model.Template, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return decode(std)
}

// ParseJSON5 decodes a JSON5 template definition: unquoted keys, single
// quoted strings, hex numbers and the rest of the JSON5 grammar.
func ParseJSON5(data []byte) (*model.Template, error) {
	var doc any
	if err := json5.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse: json5: %w", err)
	}
	std, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return decode(std)
}

// ParseFile picks the parser for name by its extension.
func ParseFile(name string, data []byte) (*model.Template, error) {
	if strings.EqualFold(path.Ext(name), ".json5") {
		return ParseJSON5(data)
	}
	return Parse(data)
}

func decode(std []byte) (*model.Template, error) {
	var t model.Template
	if err := json.Unmarshal(std, &t); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadAll walks fsys and parses every template file. A file that fails to
// parse or validate is logged and skipped; only an unreadable source is an
// error.
func LoadAll(fsys fs.FS, logger *slog.Logger) ([]*model.Template, error) {
	var out []*model.Template
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isTemplateFile(p) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			logger.Warn("skipping unreadable template", "path", p, "error", err)
			return nil
		}
		t, err := ParseFile(p, data)
		if err != nil {
			logger.Warn("skipping invalid template", "path", p, "error", err)
			return nil
		}
		logger.Debug("loaded template", "path", p, "uuid", t.Identity, "version", t.Version)
		out = append(out, t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk templates: %w", err)
	}
	return out, nil
}

// ReadDefaultIdentity reads the one-line default identity file. A missing
// file yields an empty identity.
func ReadDefaultIdentity(fsys fs.FS, name string) (string, error) {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read default template: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Load builds a Registry from every template in fsys.
func Load(fsys fs.FS, defaultIdentity string, logger *slog.Logger) (*Registry, error) {
	all, err := LoadAll(fsys, logger)
	if err != nil {
		return nil, err
	}
	r := New(all, defaultIdentity)
	if r.Len() < len(all) {
		logger.Warn("ignored duplicate template versions", "duplicates", len(all)-r.Len())
	}
	if defaultIdentity != "" {
		if _, ok := r.ResolveDefault(); !ok {
			logger.Warn("default template not found", "uuid", defaultIdentity)
		}
	}
	return r, nil
}

func isTemplateFile(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
