package templates

import (
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/alfredjeanlab/scout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tmpl(identity string, version int) *model.Template {
	return &model.Template{Name: identity, Identity: identity, Version: version}
}

func TestResolveDefault(t *testing.T) {
	r := New([]*model.Template{tmpl("A", 1), tmpl("A", 2), tmpl("B", 1)}, "A")
	got, ok := r.ResolveDefault()
	if !ok {
		t.Fatal("expected a default template")
	}
	if got.Identity != "A" || got.Version != 2 {
		t.Fatalf("default = %s v%d, want A v2", got.Identity, got.Version)
	}
}

func TestResolveDefaultMissing(t *testing.T) {
	for _, id := range []string{"", "C"} {
		r := New([]*model.Template{tmpl("A", 1)}, id)
		if _, ok := r.ResolveDefault(); ok {
			t.Errorf("default %q: expected none", id)
		}
	}
}

func TestResolve(t *testing.T) {
	r := New([]*model.Template{tmpl("A", 3), tmpl("A", 1), tmpl("A", 2), tmpl("B", 7)}, "")

	for _, tc := range []struct {
		name        string
		identity    string
		version     *int
		wantVersion int
		wantOK      bool
	}{
		{"Latest", "A", nil, 3, true},
		{"Exact", "A", intPtr(2), 2, true},
		{"ExactMissing", "A", intPtr(9), 0, false},
		{"UnknownIdentity", "Z", nil, 0, false},
		{"OtherIdentity", "B", nil, 7, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var (
				got *model.Template
				ok  bool
			)
			if tc.version == nil {
				got, ok = r.Resolve(tc.identity)
			} else {
				got, ok = r.ResolveVersion(tc.identity, *tc.version)
			}
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && got.Version != tc.wantVersion {
				t.Fatalf("version = %d, want %d", got.Version, tc.wantVersion)
			}
		})
	}
}

func TestNewDropsDuplicateVersions(t *testing.T) {
	first := tmpl("A", 1)
	first.Name = "first"
	second := tmpl("A", 1)
	second.Name = "second"
	r := New([]*model.Template{first, second}, "")
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
	got, _ := r.Resolve("A")
	if got.Name != "first" {
		t.Fatalf("kept %q, want first", got.Name)
	}
}

func TestSummariesSorted(t *testing.T) {
	r := New([]*model.Template{tmpl("B", 1), tmpl("A", 2), tmpl("A", 1)}, "")
	got := r.Summaries()
	want := []model.Summary{{Name: "A", Identity: "A", Version: 1}, {Name: "A", Identity: "A", Version: 2}, {Name: "B", Identity: "B", Version: 1}}
	if len(got) != len(want) {
		t.Fatalf("Summaries = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Summaries[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

const validTemplate = `{
  // comments are allowed
  "name": "Scouting",
  "uuid": "A",
  "version": 1,
  "pit": {"title": "Pit", "entries": [{"type": "text", "name": "team", "prompt": "Team"},]},
  "match": {"title": "Match", "entries": []},
}`

func TestParseJSON5(t *testing.T) {
	src := []byte(`{ name: 'Demo', uuid: "A", version: 1, pit: {title: "Pit", entries: []}, match: {title: "Match", entries: [],}, }`)
	got, err := ParseFile("demo.json5", src)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if got.Name != "Demo" || got.Identity != "A" || got.Version != 1 || got.Match.Title != "Match" {
		t.Fatalf("parsed %+v", got)
	}

	// Unquoted keys stay a parse error for plain JSON files.
	if _, err := ParseFile("demo.json", src); err == nil {
		t.Fatal("expected .json to reject unquoted keys")
	}
}

func TestParseJSON5HexAndComments(t *testing.T) {
	src := []byte(`{
  // hex numbers decode like decimals
  uuid: 'H',
  version: 0x10,
  pit: {entries: [{type: 'text', name: 'team', prompt: 'Team'}]},
  match: {entries: []},
}`)
	got, err := ParseJSON5(src)
	if err != nil {
		t.Fatalf("ParseJSON5: %v", err)
	}
	if got.Version != 16 || len(got.Pit.Entries) != 1 {
		t.Fatalf("parsed version %d with %d pit entries", got.Version, len(got.Pit.Entries))
	}
}

func TestLoadSkipsInvalidFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"a.json5":          {Data: []byte(validTemplate)},
		"nested/b.json":    {Data: []byte(`{"name":"B","uuid":"B","version":2,"pit":{"title":"","entries":[]},"match":{"title":"","entries":[]}}`)},
		"bare/c.json5":     {Data: []byte(`{uuid: 'E', version: 0x1, pit: {entries: []}, match: {entries: [],},}`)},
		"broken.json":      {Data: []byte(`{"name":`)},
		"dupnames.jsonc":   {Data: []byte(`{"uuid":"C","version":1,"pit":{"entries":[{"type":"text","name":"x","prompt":"p"},{"type":"counter","name":"x","prompt":"q"}]},"match":{"entries":[]}}`)},
		"unknown.json":     {Data: []byte(`{"uuid":"D","version":1,"pit":{"entries":[{"type":"slider"}]},"match":{"entries":[]}}`)},
		"README.md":        {Data: []byte("not a template")},
		"default-template": {Data: []byte(" A \n")},
	}

	all, err := LoadAll(fsys, discardLogger())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("loaded %d templates, want 3", len(all))
	}

	def, err := ReadDefaultIdentity(fsys, "default-template")
	if err != nil {
		t.Fatalf("ReadDefaultIdentity: %v", err)
	}
	if def != "A" {
		t.Fatalf("default identity = %q, want A", def)
	}

	r, err := Load(fsys, def, discardLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := r.ResolveDefault()
	if !ok || got.Name != "Scouting" {
		t.Fatalf("ResolveDefault = %v, %v", got, ok)
	}
}

func TestReadDefaultIdentityMissingFile(t *testing.T) {
	def, err := ReadDefaultIdentity(fstest.MapFS{}, "default-template")
	if err != nil || def != "" {
		t.Fatalf("ReadDefaultIdentity = %q, %v; want empty, nil", def, err)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse([]byte(validTemplate))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got.Pit.Entries) != 1 || got.Pit.Entries[0].FieldName() != "team" {
		t.Fatalf("pit entries = %v", got.Pit.Entries)
	}
	if _, err := Parse([]byte(`{"uuid":"","version":1,"pit":{"entries":[]},"match":{"entries":[]}}`)); err == nil {
		t.Fatal("expected validation error for blank uuid")
	}
}

func intPtr(v int) *int { return &v }
