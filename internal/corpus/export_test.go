// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/corpus-engine/pkg/types"
)

func TestExportYAML(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	mustAdd(t, store, "s1",
		paperAbout("p1", "Graph sparsification at scale", "graph sparsification"),
		paperAbout("p2", "Streaming sketch algorithms", "streaming sketches"))

	var buf bytes.Buffer
	if err := store.ExportYAML(ctx, "s1", &buf); err != nil {
		t.Fatalf("ExportYAML: %v", err)
	}

	var entries []ExportEntry
	if err := yaml.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("exported %d entries, want 2", len(entries))
	}
	if entries[0].ID != "p1" || entries[1].ID != "p2" {
		t.Errorf("export order = %s, %s", entries[0].ID, entries[1].ID)
	}
	for _, e := range entries {
		if e.ChunkCount < 1 {
			t.Errorf("paper %s exported with chunk count %d", e.ID, e.ChunkCount)
		}
		if e.SourceType != string(types.SourceDiscovered) {
			t.Errorf("paper %s source type = %q", e.ID, e.SourceType)
		}
	}
}

func TestExportOmitsFullText(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	p := paperAbout("p1", "Cache admission policies", "cache admission")
	p.FullText = "SENTINEL-BODY-TEXT " + p.FullText
	mustAdd(t, store, "s1", p)

	var buf bytes.Buffer
	if err := store.ExportYAML(ctx, "s1", &buf); err != nil {
		t.Fatalf("ExportYAML: %v", err)
	}
	if strings.Contains(buf.String(), "SENTINEL-BODY-TEXT") {
		t.Error("export includes full text")
	}
}

func TestExportJSON(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	mustAdd(t, store, "s1", types.Paper{
		ID:    "meta-only",
		Title: "Consensus without leaders",
	})

	var buf bytes.Buffer
	if err := store.ExportJSON(ctx, "s1", &buf); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var entries []ExportEntry
	if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("exported %d entries, want 1", len(entries))
	}
	// Title-only papers index a single metadata fallback chunk.
	if entries[0].ChunkCount != 1 {
		t.Errorf("chunk count = %d, want 1", entries[0].ChunkCount)
	}
}

func TestExportSessionScoped(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	mustAdd(t, store, "s1", paperAbout("p1", "Vector clocks revisited", "vector clocks"))
	mustAdd(t, store, "s2", paperAbout("p9", "Gossip protocols", "gossip dissemination"))

	var buf bytes.Buffer
	if err := store.ExportYAML(ctx, "s1", &buf); err != nil {
		t.Fatalf("ExportYAML: %v", err)
	}

	var entries []ExportEntry
	if err := yaml.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "p1" {
		t.Errorf("export leaked across sessions: %+v", entries)
	}
}
