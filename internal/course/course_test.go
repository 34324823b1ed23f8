package course

import (
	"strings"
	"testing"
)

func TestDefaultTable(t *testing.T) {
	s, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	want := []struct {
		id       string
		sections int
	}{
		{"module-0", 8},
		{"module-1", 9},
		{"module-2", 14},
	}
	if len(s.Modules) != len(want) {
		t.Fatalf("expected %d modules, got %d", len(want), len(s.Modules))
	}
	for i, w := range want {
		m := s.Modules[i]
		if m.ID != w.id {
			t.Errorf("module %d: id = %q, want %q", i, m.ID, w.id)
		}
		if len(m.Sections) != w.sections {
			t.Errorf("module %q: %d sections, want %d", m.ID, len(m.Sections), w.sections)
		}
		for _, sec := range m.Sections {
			if sec.Completed {
				t.Errorf("section %q should start incomplete", sec.ID)
			}
		}
	}
	if s.TotalSections() != 31 {
		t.Errorf("TotalSections = %d, want 31", s.TotalSections())
	}
}

func TestDefaultReturnsFreshCopies(t *testing.T) {
	a := MustDefault()
	b := MustDefault()
	a.Modules[0].Sections[0].Completed = true
	if b.Modules[0].Sections[0].Completed {
		t.Fatal("Default must not share state between calls")
	}
}

func TestLookups(t *testing.T) {
	s := MustDefault()

	if s.Module("module-1") == nil {
		t.Fatal("expected module-1")
	}
	if s.Module("nope") != nil {
		t.Fatal("expected nil for unknown module")
	}
	if got := s.ModuleIndex("module-2"); got != 2 {
		t.Errorf("ModuleIndex(module-2) = %d, want 2", got)
	}
	sec := s.Section("module-0", "the-problem")
	if sec == nil || sec.Title != "The Problem" {
		t.Fatalf("unexpected section: %+v", sec)
	}
	if s.Section("module-0", "growth-mindset") != nil {
		t.Fatal("section lookup must be scoped to its module")
	}
	if s.Section("nope", "summary") != nil {
		t.Fatal("expected nil for unknown module")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := MustDefault()
	c := s.Clone()
	c.Modules[1].Sections[2].Completed = true
	c.Modules[1].Title = "changed"

	if s.Modules[1].Sections[2].Completed {
		t.Error("clone shares section storage")
	}
	if s.Modules[1].Title == "changed" {
		t.Error("clone shares module storage")
	}
}

func TestCompletedCount(t *testing.T) {
	m := Module{Sections: []Section{{ID: "a", Completed: true}, {ID: "b"}, {ID: "c", Completed: true}}}
	if got := m.CompletedCount(); got != 2 {
		t.Errorf("CompletedCount = %d, want 2", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no modules",
			yaml:    "modules: []",
			wantErr: "no modules",
		},
		{
			name: "duplicate module",
			yaml: `modules:
  - {id: m, title: A, sections: [{id: s, title: S}]}
  - {id: m, title: B, sections: [{id: s, title: S}]}`,
			wantErr: `duplicate module ID: "m"`,
		},
		{
			name: "duplicate section",
			yaml: `modules:
  - {id: m, title: A, sections: [{id: s, title: S}, {id: s, title: T}]}`,
			wantErr: `duplicate section ID: "s"`,
		},
		{
			name:    "empty module",
			yaml:    `modules: [{id: m, title: A, sections: []}]`,
			wantErr: `module "m" has no sections`,
		},
		{
			name:    "same section id in different modules is fine",
			yaml:    "modules:\n  - {id: a, title: A, sections: [{id: s, title: S}]}\n  - {id: b, title: B, sections: [{id: s, title: S}]}",
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}
