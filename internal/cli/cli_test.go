package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/bedplan/pkg/catalog"
	"github.com/matzehuels/bedplan/pkg/errors"
	"github.com/matzehuels/bedplan/pkg/server"
)

// isolate points every config, cache and data directory at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

// run executes the CLI with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := out
	out = &buf
	defer func() { out = prev }()

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	s, err := run(t, args...)
	if err != nil {
		t.Fatalf("bedplan %s: %v", strings.Join(args, " "), err)
	}
	return s
}

const emptyGarden = `{"name": "Patio", "beds": [{"rows": 2, "cols": 4, "lightLevel": "high"}]}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPlanCommandJSON(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "garden.json", emptyGarden)

	s := mustRun(t, "plan", path, "--plants", "TOM,BAS", "--json", "--no-cache")

	var resp server.PlanResponse
	if err := json.Unmarshal([]byte(s), &resp); err != nil {
		t.Fatalf("decode output: %v\n%s", err, s)
	}
	if len(resp.Plan.Placements) != 2 {
		t.Fatalf("placements = %d, want 2", len(resp.Plan.Placements))
	}
	planted := 0
	for _, c := range resp.Garden.Beds[0].Cells {
		if c != nil {
			planted++
		}
	}
	if planted == 0 {
		t.Error("planned garden has no planted cells")
	}
}

func TestPlanCommandOutput(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "garden.json", emptyGarden)
	dest := filepath.Join(dir, "planted.json")

	s := mustRun(t, "plan", path, "--plants", "TOM", "-o", dest)
	for _, want := range []string{"bed 0", "TOM", "1/1 plants placed", dest} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"TOM"`) {
		t.Errorf("planted garden file has no TOM cells:\n%s", data)
	}
}

func TestPlanCommandCaches(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "garden.json", emptyGarden)

	first := mustRun(t, "plan", path, "--plants", "TOM")
	if !strings.Contains(first, iconFresh) {
		t.Errorf("first run should be computed:\n%s", first)
	}
	second := mustRun(t, "plan", path, "--plants", "TOM")
	if !strings.Contains(second, iconCached) {
		t.Errorf("second run should hit the cache:\n%s", second)
	}
	refreshed := mustRun(t, "plan", path, "--plants", "TOM", "--refresh")
	if !strings.Contains(refreshed, iconFresh) {
		t.Errorf("--refresh should recompute:\n%s", refreshed)
	}
}

func TestPlanCommandErrors(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "garden.json", emptyGarden)
	stray := writeFile(t, dir, "stray.json",
		`{"beds": [{"rows": 2, "cols": 2, "lightLevel": "high", "cells": ["ZZZ", null, null, null]}]}`)

	tests := []struct {
		name string
		args []string
		want errors.Code
	}{
		{"unknown planted cell", []string{"plan", stray, "--plants", "TOM"}, errors.ErrCodeUnknownPlant},
		{"target for unselected plant", []string{"plan", path, "--plants", "TOM", "--target", "PEP=4"}, errors.ErrCodeInvalidInput},
		{"no garden", []string{"plan"}, errors.ErrCodeInvalidInput},
		{"file and stored", []string{"plan", path, "--stored", "x"}, errors.ErrCodeInvalidInput},
		{"save without stored", []string{"plan", path, "--save"}, errors.ErrCodeInvalidInput},
		{"unknown plant", []string{"plan", path, "--plants", "XYZ"}, errors.ErrCodeUnknownPlant},
		{"bad target", []string{"plan", path, "--target", "TOM"}, errors.ErrCodeInvalidInput},
		{"bad policy", []string{"plan", path, "--policy", "fancy"}, errors.ErrCodeInvalidPolicy},
		{"missing file", []string{"plan", filepath.Join(dir, "nope.json")}, errors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestParseTargets(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    map[string]int
		wantErr bool
	}{
		{name: "none", specs: nil, want: nil},
		{name: "one", specs: []string{"TOM=4"}, want: map[string]int{"TOM": 4}},
		{name: "spaces", specs: []string{" TOM = 4 ", "BAS=0"}, want: map[string]int{"TOM": 4, "BAS": 0}},
		{name: "no value", specs: []string{"TOM"}, wantErr: true},
		{name: "not a number", specs: []string{"TOM=four"}, wantErr: true},
		{name: "negative", specs: []string{"TOM=-1"}, wantErr: true},
		{name: "no id", specs: []string{"=3"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTargets(tt.specs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTargets() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseTargets() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("target %s = %d, want %d", k, got[k], v)
				}
			}
		})
	}
}

func TestSelectPlants(t *testing.T) {
	cat := catalog.Default()

	all, err := selectPlants(cat, nil, false)
	if err != nil || len(all) != cat.Len() {
		t.Errorf("empty selection = %d plants, %v; want whole catalogue", len(all), err)
	}
	some, err := selectPlants(cat, []string{"BAS", "TOM"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(some) != 2 || some[0].ID != "TOM" {
		t.Errorf("selection = %v, want catalogue order TOM, BAS", some)
	}
}

func TestGardenLifecycle(t *testing.T) {
	isolate(t)

	s := mustRun(t, "garden", "new", "backyard", "--bed", "2x4:high:north", "--zone", "7b")
	if !strings.Contains(s, "Created backyard") {
		t.Errorf("new output:\n%s", s)
	}

	s = mustRun(t, "garden", "list")
	if !strings.Contains(s, "backyard") || !strings.Contains(s, "0/8") {
		t.Errorf("list output:\n%s", s)
	}

	mustRun(t, "plan", "--stored", "backyard", "--plants", "TOM", "--save", "--no-cache")

	s = mustRun(t, "garden", "show", "backyard")
	for _, want := range []string{"north", "TOM", "7b"} {
		if !strings.Contains(s, want) {
			t.Errorf("show output missing %q:\n%s", want, s)
		}
	}

	s = mustRun(t, "garden", "export", "backyard")
	if !strings.Contains(s, `"TOM"`) {
		t.Errorf("export should include the saved plan:\n%s", s)
	}

	mustRun(t, "garden", "delete", "backyard")
	s = mustRun(t, "garden", "list")
	if !strings.Contains(s, "No gardens") {
		t.Errorf("list after delete:\n%s", s)
	}

	if _, err := run(t, "garden", "show", "backyard"); !errors.Is(err, errors.ErrCodeGardenNotFound) {
		t.Errorf("show deleted garden error = %v, want GARDEN_NOT_FOUND", err)
	}
}

func TestGardenImport(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "garden.json", emptyGarden)

	s := mustRun(t, "garden", "import", path)
	if !strings.Contains(s, "Imported Patio") {
		t.Errorf("import output:\n%s", s)
	}
	s = mustRun(t, "garden", "list")
	if !strings.Contains(s, "Patio") {
		t.Errorf("list output:\n%s", s)
	}
}

func TestParseBedSpec(t *testing.T) {
	tests := []struct {
		spec     string
		rows     int
		cols     int
		name     string
		wantCode errors.Code
	}{
		{spec: "4x8:high", rows: 4, cols: 8},
		{spec: "2X3:low:shed side", rows: 2, cols: 3, name: "shed side"},
		{spec: "4x8", wantCode: errors.ErrCodeInvalidBed},
		{spec: "4by8:high", wantCode: errors.ErrCodeInvalidBed},
		{spec: "0x8:high", wantCode: errors.ErrCodeInvalidBed},
		{spec: "4x8:dim", wantCode: errors.ErrCodeInvalidLight},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			b, err := parseBedSpec(tt.spec)
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Errorf("parseBedSpec() error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseBedSpec() error: %v", err)
			}
			if b.Rows() != tt.rows || b.Cols() != tt.cols || b.Name() != tt.name {
				t.Errorf("bed = %dx%d %q, want %dx%d %q", b.Rows(), b.Cols(), b.Name(), tt.rows, tt.cols, tt.name)
			}
		})
	}
}

func TestPlanCommandDecomposesExistingSprawlers(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "garden.json",
		`{"beds": [{"rows": 2, "cols": 4, "lightLevel": "high", "cells": ["CUC", "CUC", null, null, "CUC", "CUC", null, null]}]}`)

	s := mustRun(t, "plan", path, "--plants", "TOM", "--decompose", "--json", "--no-cache")
	var resp server.PlanResponse
	if err := json.Unmarshal([]byte(s), &resp); err != nil {
		t.Fatalf("decode output: %v\n%s", err, s)
	}
	if len(resp.Regions) != 1 || len(resp.Regions[0]) != 1 {
		t.Fatalf("regions = %+v, want one cucumber region", resp.Regions)
	}
	if reg := resp.Regions[0][0]; reg.PlantID != "CUC" || len(reg.Instances) != 2 {
		t.Errorf("region = %+v, want two cucumber pairs", reg)
	}
}

func TestDecomposeCommand(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "garden.json",
		`{"beds": [{"rows": 2, "cols": 2, "lightLevel": "high", "cells": ["CUC", "CUC", "CUC", "CUC"]}]}`)

	s := mustRun(t, "decompose", path, "--json")
	var resp server.DecomposeResponse
	if err := json.Unmarshal([]byte(s), &resp); err != nil {
		t.Fatalf("decode output: %v\n%s", err, s)
	}
	if len(resp.Regions) != 1 || len(resp.Regions[0]) != 1 {
		t.Fatalf("regions = %+v, want one region", resp.Regions)
	}
	if got := len(resp.Regions[0][0].Instances); got != 2 {
		t.Errorf("instances = %d, want 2", got)
	}

	s = mustRun(t, "decompose", path)
	if !strings.Contains(s, "1 regions decomposed") {
		t.Errorf("table output:\n%s", s)
	}
}

func TestCatalogCommands(t *testing.T) {
	dir := isolate(t)

	s := mustRun(t, "catalog", "list", "--category", "herb")
	if !strings.Contains(s, "Basil") || strings.Contains(s, "Tomato") {
		t.Errorf("herb list:\n%s", s)
	}
	if _, err := run(t, "catalog", "list", "--category", "tree"); !errors.Is(err, errors.ErrCodeInvalidCategory) {
		t.Errorf("bad category error = %v", err)
	}

	dest := filepath.Join(dir, "plants.yaml")
	mustRun(t, "catalog", "export", "-o", dest)
	cat, err := catalog.Load(dest)
	if err != nil {
		t.Fatalf("exported catalogue does not load: %v", err)
	}
	if cat.Len() != catalog.Default().Len() {
		t.Errorf("exported %d plants, want %d", cat.Len(), catalog.Default().Len())
	}

	// The exported file can drive planning.
	mustRun(t, "catalog", "list", "--catalog", dest)
}

func TestConfigCommands(t *testing.T) {
	dir := isolate(t)

	s := mustRun(t, "config", "path")
	want := filepath.Join(dir, "config", "bedplan", "config.toml")
	if strings.TrimSpace(s) != want {
		t.Errorf("config path = %q, want %q", strings.TrimSpace(s), want)
	}

	mustRun(t, "config", "init")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("config init did not write %s: %v", want, err)
	}
	if _, err := run(t, "config", "init"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("second init error = %v, want INVALID_INPUT", err)
	}
	mustRun(t, "config", "init", "--force")

	s = mustRun(t, "config", "show")
	for _, want := range []string{"[planner]", `policy = "simple"`, "[cache]"} {
		if !strings.Contains(s, want) {
			t.Errorf("config show missing %q:\n%s", want, s)
		}
	}

	explicit := writeFile(t, dir, "rich.toml", "[planner]\npolicy = \"rich\"\n")
	s = mustRun(t, "--config", explicit, "config", "show")
	if !strings.Contains(s, `policy = "rich"`) {
		t.Errorf("--config should override the policy:\n%s", s)
	}
}

func TestCacheCommands(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "garden.json", emptyGarden)

	s := mustRun(t, "cache", "path")
	if strings.TrimSpace(s) != filepath.Join(dir, "cache", "bedplan") {
		t.Errorf("cache path = %q", s)
	}

	s = mustRun(t, "cache", "clear")
	if !strings.Contains(s, "Cache is empty") {
		t.Errorf("clear on empty cache:\n%s", s)
	}

	mustRun(t, "plan", path, "--plants", "TOM")
	s = mustRun(t, "cache", "clear")
	if !strings.Contains(s, "Cleared 1 cached entries") {
		t.Errorf("clear after plan:\n%s", s)
	}
}

func TestCompletionCommand(t *testing.T) {
	isolate(t)
	s := mustRun(t, "completion", "bash")
	if !strings.Contains(s, "bedplan") {
		t.Error("bash completion should mention bedplan")
	}
	if _, err := run(t, "completion", "tcsh"); err == nil {
		t.Error("unknown shell should fail")
	}
}
