// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/meshintel/corpus-engine/internal/corpus"
	"github.com/meshintel/corpus-engine/pkg/types"
)

// mockBackend returns a scripted completion and records the prompts it saw.
type mockBackend struct {
	reply      string
	err        error
	calls      int
	lastSystem string
	lastUser   string
}

func (m *mockBackend) Complete(_ context.Context, system, user string) (string, error) {
	m.calls++
	m.lastSystem = system
	m.lastUser = user
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

// tagReplyBackend cites the first excerpt tag it finds in the system prompt.
type tagReplyBackend struct {
	calls int
}

func (b *tagReplyBackend) Complete(_ context.Context, system, _ string) (string, error) {
	b.calls++
	idx := strings.Index(system, "Source excerpts:")
	rest := system[idx:]
	open := strings.Index(rest, "[")
	end := strings.Index(rest, "]")
	tag := rest[open+1 : end]
	return fmt.Sprintf("The sources report steady progress [%s].", tag), nil
}

func testSession() types.Session {
	return types.Session{ID: "sess-1", Topic: "spectral graph methods"}
}

func seedStore(t *testing.T) *corpus.Store {
	t.Helper()
	store, err := corpus.NewStore(
		types.CorpusConfig{DataDir: t.TempDir(), MaxChunkChars: 400, ChunkOverlap: 80},
		types.RetrievalConfig{},
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	var body strings.Builder
	for i := 0; i < 20; i++ {
		body.WriteString("Spectral clustering partitions graphs using eigenvectors of the Laplacian. ")
	}
	if _, err := store.AddPapers(context.Background(), "sess-1", []types.Paper{{
		ID:       "p1",
		Title:    "Spectral clustering of large graphs",
		Authors:  []string{"Grace Hopper"},
		Year:     2018,
		FullText: body.String(),
	}}); err != nil {
		t.Fatal(err)
	}
	return store
}

func newGenerator(store *corpus.Store, backend Backend) *Generator {
	return NewGenerator(store, backend, types.GenerationConfig{})
}

// --- Answer ---

func TestAnswerGrounded(t *testing.T) {
	store := seedStore(t)
	backend := &tagReplyBackend{}
	g := newGenerator(store, backend)
	ctx := context.Background()

	answer, err := g.Answer(ctx, testSession(), "how does spectral clustering partition graphs?")
	if err != nil {
		t.Fatal(err)
	}
	if answer.State != types.AnswerGrounded {
		t.Fatalf("state = %q, want grounded", answer.State)
	}
	if len(answer.Citations) != 1 {
		t.Fatalf("citations = %+v, want 1", answer.Citations)
	}
	if answer.Citations[0].PaperID != "p1" {
		t.Errorf("cited paper = %q", answer.Citations[0].PaperID)
	}
	if len(answer.Citations[0].ChunkSeqs) == 0 {
		t.Error("citation carries no chunk sequences")
	}
	if !strings.Contains(answer.Text, "["+answer.Citations[0].Tag+"]") {
		t.Errorf("answer text lost its citation marker: %q", answer.Text)
	}

	turns, err := store.History(ctx, "sess-1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("history has %d turns, want question+answer", len(turns))
	}
	if turns[0].Role != types.RoleUser || turns[1].Role != types.RoleAssistant {
		t.Errorf("history roles = %q, %q", turns[0].Role, turns[1].Role)
	}
	if len(turns[1].CitedPapers) != 1 || turns[1].CitedPapers[0] != "p1" {
		t.Errorf("recorded citations = %v", turns[1].CitedPapers)
	}
}

func TestAnswerEmptyCorpus(t *testing.T) {
	store, err := corpus.NewStore(
		types.CorpusConfig{DataDir: t.TempDir()},
		types.RetrievalConfig{},
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	backend := &mockBackend{reply: "unused"}
	g := newGenerator(store, backend)

	_, err = g.Answer(context.Background(), testSession(), "anything?")
	if !errors.Is(err, corpus.ErrEmptyCorpus) {
		t.Fatalf("err = %v, want ErrEmptyCorpus", err)
	}
	if backend.calls != 0 {
		t.Error("model called on empty corpus")
	}

	turns, _ := store.History(context.Background(), "sess-1", 0)
	if len(turns) != 0 {
		t.Errorf("%d turns recorded on empty corpus", len(turns))
	}
}

func TestAnswerRefusesWithoutEvidence(t *testing.T) {
	store := seedStore(t)
	backend := &mockBackend{reply: "unused"}
	g := newGenerator(store, backend)
	ctx := context.Background()

	answer, err := g.Answer(ctx, testSession(), "medieval castle fortification techniques")
	if err != nil {
		t.Fatal(err)
	}
	if answer.State != types.AnswerRefused {
		t.Fatalf("state = %q, want refused", answer.State)
	}
	if answer.Text != RefusalText {
		t.Errorf("refusal text = %q", answer.Text)
	}
	if len(answer.Citations) != 0 {
		t.Errorf("refusal carries citations: %+v", answer.Citations)
	}
	if backend.calls != 0 {
		t.Error("model called despite refusal")
	}

	turns, _ := store.History(ctx, "sess-1", 0)
	if len(turns) != 2 || turns[1].Content != RefusalText {
		t.Errorf("refusal not recorded as assistant turn: %+v", turns)
	}
}

func TestAnswerRefusesWhenModelCitesNothing(t *testing.T) {
	store := seedStore(t)
	backend := &mockBackend{reply: "Everything is widely known [MadeUpTag-1999] and needs no sources."}
	g := newGenerator(store, backend)

	answer, err := g.Answer(context.Background(), testSession(), "how does spectral clustering work?")
	if err != nil {
		t.Fatal(err)
	}
	if answer.State != types.AnswerRefused {
		t.Fatalf("state = %q, want refused", answer.State)
	}
	if backend.calls != 1 {
		t.Errorf("model calls = %d, want 1", backend.calls)
	}
}

func TestAnswerModelFailure(t *testing.T) {
	store := seedStore(t)
	backend := &mockBackend{err: errors.New("boom")}
	g := newGenerator(store, backend)
	ctx := context.Background()

	_, err := g.Answer(ctx, testSession(), "how does spectral clustering work?")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}

	// The question stays recorded; no assistant turn is.
	turns, _ := store.History(ctx, "sess-1", 0)
	if len(turns) != 1 || turns[0].Role != types.RoleUser {
		t.Errorf("history after failure = %+v", turns)
	}
}

func TestAnswerIncludesHistoryInPrompt(t *testing.T) {
	store := seedStore(t)
	backend := &tagReplyBackend{}
	g := newGenerator(store, backend)
	ctx := context.Background()

	if _, err := g.Answer(ctx, testSession(), "how does spectral clustering work?"); err != nil {
		t.Fatal(err)
	}

	probe := &mockBackend{reply: "no citation"}
	g2 := newGenerator(store, probe)
	if _, err := g2.Answer(ctx, testSession(), "and for large graphs?"); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(probe.lastUser, "Conversation so far:") {
		t.Error("follow-up prompt lacks history")
	}
	if !strings.Contains(probe.lastUser, "how does spectral clustering work?") {
		t.Error("follow-up prompt lacks the earlier question")
	}
	if !strings.Contains(probe.lastUser, "and for large graphs?") {
		t.Error("follow-up prompt lacks the new question")
	}
}

func TestAnswerSystemPromptContainsExcerpts(t *testing.T) {
	store := seedStore(t)
	backend := &mockBackend{reply: "no citation"}
	g := newGenerator(store, backend)

	g.Answer(context.Background(), testSession(), "how does spectral clustering work?")

	if !strings.Contains(backend.lastSystem, "Spectral clustering of large graphs") {
		t.Error("system prompt lacks the paper title")
	}
	if !strings.Contains(backend.lastSystem, "ONLY") {
		t.Error("system prompt lacks the grounding instruction")
	}
	if !strings.Contains(backend.lastSystem, "Grace Hopper") {
		t.Error("system prompt lacks the author line")
	}
}

// --- Section ---

func TestSection(t *testing.T) {
	store := seedStore(t)
	backend := &tagReplyBackend{}
	g := newGenerator(store, backend)
	ctx := context.Background()

	text, citations, err := g.Section(ctx, testSession(), "spectral clustering graphs",
		"Write one paragraph about the clustering methods used.")
	if err != nil {
		t.Fatal(err)
	}
	if text == "" || len(citations) == 0 {
		t.Fatalf("text = %q, citations = %+v", text, citations)
	}

	// Section never touches history.
	turns, _ := store.History(ctx, "sess-1", 0)
	if len(turns) != 0 {
		t.Errorf("section recorded %d turns", len(turns))
	}
}

func TestSectionNoEvidence(t *testing.T) {
	store := seedStore(t)
	backend := &mockBackend{reply: "unused"}
	g := newGenerator(store, backend)

	text, citations, err := g.Section(context.Background(), testSession(),
		"medieval castles", "Write about castles.")
	if err != nil {
		t.Fatal(err)
	}
	if text != "" || citations != nil {
		t.Errorf("expected empty section, got %q / %+v", text, citations)
	}
	if backend.calls != 0 {
		t.Error("model called without evidence")
	}
}

// --- excerpt building and citation resolution ---

func TestBuildExcerptsSharedAndUniqueTags(t *testing.T) {
	chunks := []corpus.ScoredChunk{
		{Chunk: types.Chunk{PaperID: "a", Seq: 0}, PaperTitle: "Alpha wave detection", PaperYear: 2020},
		{Chunk: types.Chunk{PaperID: "a", Seq: 3}, PaperTitle: "Alpha wave detection", PaperYear: 2020},
		{Chunk: types.Chunk{PaperID: "b", Seq: 1}, PaperTitle: "Alpha wave detection", PaperYear: 2020},
	}

	excerpts := buildExcerpts(chunks)
	if excerpts[0].Tag != excerpts[1].Tag {
		t.Errorf("chunks of one paper got different tags: %q vs %q", excerpts[0].Tag, excerpts[1].Tag)
	}
	if excerpts[2].Tag == excerpts[0].Tag {
		t.Errorf("distinct papers share tag %q", excerpts[2].Tag)
	}
	if !strings.HasPrefix(excerpts[2].Tag, excerpts[0].Tag) {
		t.Errorf("collision tag %q does not extend base %q", excerpts[2].Tag, excerpts[0].Tag)
	}
}

func TestResolveCitations(t *testing.T) {
	excerpts := []Excerpt{
		{Tag: "Alpha-Waves-2020", PaperID: "a", Seq: 2},
		{Tag: "Alpha-Waves-2020", PaperID: "a", Seq: 0},
		{Tag: "Beta-Bands-2021", PaperID: "b", Seq: 1},
	}

	text := "First point [Alpha-Waves-2020]. Second [Beta-Bands-2021; Fake-2000]. Third [Fake-2000]."
	cleaned, citations := resolveCitations(text, excerpts)

	if len(citations) != 2 {
		t.Fatalf("citations = %+v, want 2", citations)
	}
	if citations[0].PaperID != "a" || citations[1].PaperID != "b" {
		t.Errorf("citation order = %s, %s", citations[0].PaperID, citations[1].PaperID)
	}
	if got := citations[0].ChunkSeqs; len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("chunk seqs = %v, want [0 2]", got)
	}
	if strings.Contains(cleaned, "Fake-2000") {
		t.Errorf("unknown marker survived: %q", cleaned)
	}
	if !strings.Contains(cleaned, "[Alpha-Waves-2020]") || !strings.Contains(cleaned, "[Beta-Bands-2021]") {
		t.Errorf("valid markers damaged: %q", cleaned)
	}
	if strings.Contains(cleaned, "Third [") || strings.Contains(cleaned, "Third .") {
		t.Errorf("stripped marker left residue: %q", cleaned)
	}
}

func TestResolveCitationsNoMarkers(t *testing.T) {
	cleaned, citations := resolveCitations("Plain text with no brackets.", []Excerpt{{Tag: "T-1", PaperID: "a"}})
	if citations != nil {
		t.Errorf("citations = %+v, want none", citations)
	}
	if cleaned != "Plain text with no brackets." {
		t.Errorf("text altered: %q", cleaned)
	}
}

// --- Claude backend ---

func TestClaudeBackendComplete(t *testing.T) {
	var gotReq claudeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(claudeResponse{Content: []claudeContent{
			{Type: "text", Text: "model says hi"},
		}})
	}))
	defer server.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = oldURL }()

	backend := &ClaudeBackend{APIKey: "test-key", Model: "test-model"}
	got, err := backend.Complete(context.Background(), "be helpful", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if got != "model says hi" {
		t.Errorf("reply = %q", got)
	}
	if gotReq.System != "be helpful" || len(gotReq.Messages) != 1 || gotReq.Messages[0].Content != "hello" {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestClaudeBackendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "bad request"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = server.URL
	defer func() { claudeAPIURL = oldURL }()

	backend := &ClaudeBackend{APIKey: "k", Model: "m"}
	_, err := backend.Complete(context.Background(), "", "hello")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("err = %v, want 400 error", err)
	}
}
