package storage

import (
	"os"
	"path/filepath"
	"testing"

	"llmarena/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestGetSettings_DefaultsWhenEmpty(t *testing.T) {
	s := newTestStore(t)

	settings := s.GetSettings()
	if settings.GlobalSystemPrompt != "You are a helpful assistant." {
		t.Errorf("GlobalSystemPrompt = %q", settings.GlobalSystemPrompt)
	}
	if settings.GlobalTemperature != 0.7 {
		t.Errorf("GlobalTemperature = %v", settings.GlobalTemperature)
	}
	if settings.GlobalThinkingBudget != 1024 {
		t.Errorf("GlobalThinkingBudget = %d", settings.GlobalThinkingBudget)
	}
	if settings.ModelOverrides == nil {
		t.Error("ModelOverrides should never be nil")
	}
}

func TestSaveSettings_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	temp := 0.3
	in := domain.Settings{
		SelectedModels:     []string{"a/one:free", "b/two:free"},
		GlobalSystemPrompt: "be terse",
		GlobalTemperature:  0.9,
		ModelOverrides: map[string]domain.ModelOverride{
			"a/one:free": {Temperature: &temp},
		},
	}
	if err := s.SaveSettings(in); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	got := s.GetSettings()
	if got.GlobalSystemPrompt != "be terse" || got.GlobalTemperature != 0.9 {
		t.Errorf("settings = %+v", got)
	}
	if len(got.SelectedModels) != 2 {
		t.Errorf("SelectedModels = %v", got.SelectedModels)
	}
	override, ok := got.ModelOverrides["a/one:free"]
	if !ok || override.Temperature == nil || *override.Temperature != 0.3 {
		t.Errorf("override = %+v", override)
	}
}

func TestGetSettings_CorruptFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "settings.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}

	settings := s.GetSettings()
	if settings.GlobalTemperature != 0.7 {
		t.Errorf("corrupt settings file should yield defaults, got %+v", settings)
	}
}

func TestSaveConversation_AssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveConversation(domain.Conversation{
		Prompt: "tell me a joke",
		Responses: map[string]domain.ModelResponse{
			"a/one:free": {ModelID: "a/one:free", Content: "ha", TokenCount: 1},
		},
	})
	if err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}

	conversations, err := s.Conversations()
	if err != nil {
		t.Fatal(err)
	}
	if len(conversations) != 1 {
		t.Fatalf("got %d conversations, want 1", len(conversations))
	}
	conv := conversations[0]
	if conv.ID == "" {
		t.Error("ID not assigned")
	}
	if conv.Timestamp.IsZero() {
		t.Error("Timestamp not assigned")
	}
	if conv.Responses["a/one:free"].Content != "ha" {
		t.Errorf("responses = %+v", conv.Responses)
	}
}

func TestSaveConversation_Appends(t *testing.T) {
	s := newTestStore(t)

	for _, prompt := range []string{"first", "second", "third"} {
		if err := s.SaveConversation(domain.Conversation{Prompt: prompt}); err != nil {
			t.Fatal(err)
		}
	}

	conversations, err := s.Conversations()
	if err != nil {
		t.Fatal(err)
	}
	if len(conversations) != 3 {
		t.Fatalf("got %d conversations, want 3", len(conversations))
	}
	if conversations[0].Prompt != "first" || conversations[2].Prompt != "third" {
		t.Error("conversations must be stored oldest first")
	}
}

func TestSaveJoke_AndVote(t *testing.T) {
	s := newTestStore(t)

	joke, err := s.SaveJoke(domain.Joke{
		Content:        "why did the gopher cross the road",
		ModelSignature: "a/one:free",
	})
	if err != nil {
		t.Fatalf("SaveJoke: %v", err)
	}
	if joke.ID == "" || joke.Timestamp.IsZero() {
		t.Errorf("joke = %+v, want ID and timestamp assigned", joke)
	}
	if joke.Comments == nil {
		t.Error("Comments should be initialized to an empty slice")
	}

	voted, err := s.VoteJoke(joke.ID, 1)
	if err != nil {
		t.Fatalf("VoteJoke: %v", err)
	}
	if voted.Score != 1 {
		t.Errorf("Score = %d, want 1", voted.Score)
	}

	voted, err = s.VoteJoke(joke.ID, -1)
	if err != nil {
		t.Fatal(err)
	}
	if voted.Score != 0 {
		t.Errorf("Score = %d, want 0 after downvote", voted.Score)
	}
}

func TestVoteJoke_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.VoteJoke("missing", 1); err != domain.ErrJokeNotFound {
		t.Errorf("err = %v, want ErrJokeNotFound", err)
	}
}

func TestAddComment(t *testing.T) {
	s := newTestStore(t)

	joke, err := s.SaveJoke(domain.Joke{Content: "ha"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := s.AddComment(joke.ID, domain.JokeComment{Text: "classic", Author: "anon"})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(updated.Comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(updated.Comments))
	}
	c := updated.Comments[0]
	if c.ID == "" || c.Timestamp.IsZero() {
		t.Errorf("comment = %+v, want ID and timestamp assigned", c)
	}
	if c.Text != "classic" || c.Author != "anon" {
		t.Errorf("comment = %+v", c)
	}

	jokes, err := s.Jokes()
	if err != nil {
		t.Fatal(err)
	}
	if len(jokes) != 1 || len(jokes[0].Comments) != 1 {
		t.Error("comment not persisted")
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSettings(DefaultSettings()); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
