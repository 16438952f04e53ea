package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/chat"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/wizard"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleState() *wizard.State {
	s := wizard.NewState(10)
	s.ProjectName = "payments"
	s.CurrentStep = wizard.StepModel
	s.Steps[wizard.StepSetup].Artifact = &wizard.Artifact{Kind: wizard.KindRequirements, Content: "Build a payment API"}
	s.Steps[wizard.StepSetup].Completed = true
	s.Steps[wizard.StepSetup].Score = 72
	s.Steps[wizard.StepAPIs].Artifact = &wizard.Artifact{Kind: wizard.KindAPISpec, Content: "openapi: 3.0.0"}
	s.Log.Add(wizard.LevelSuccess, wizard.StepSetup, "Requirements analyzed")
	return s
}

func TestProjectRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	id, err := store.CreateProject(sampleState())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := store.LoadState(id, 10)
	require.NoError(t, err)
	assert.Equal(t, "payments", got.ProjectName)
	assert.Equal(t, wizard.StepModel, got.CurrentStep)
	assert.Equal(t, "Build a payment API", got.Requirements())
	assert.True(t, got.Steps[wizard.StepSetup].Completed)
	assert.Equal(t, 72, got.Steps[wizard.StepSetup].Score)
	assert.Equal(t, "openapi: 3.0.0", got.Steps[wizard.StepAPIs].Content())
	assert.Len(t, got.Steps, 6)
	require.Equal(t, 1, got.Log.Len())
	assert.Equal(t, "Requirements analyzed", got.Log.Entries()[0].Message)
	assert.Equal(t, 10, got.Log.Cap())
}

func TestSaveState(t *testing.T) {
	store := setupTestStore(t)
	id, err := store.CreateProject(wizard.NewState(0))
	require.NoError(t, err)

	require.NoError(t, store.SaveState(id, sampleState()))

	list, err := store.ListProjects()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "payments", list[0].Name)
	assert.Equal(t, 3, list[0].CurrentStep)
	assert.False(t, list[0].UpdatedAt.Before(list[0].CreatedAt))

	assert.ErrorIs(t, store.SaveState("nope", sampleState()), ErrNotFound)
	assert.Error(t, store.SaveState(id, nil))
}

func TestLoadState_NotFound(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.LoadState("missing", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProjects_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	first, err := store.CreateProject(wizard.NewState(0))
	require.NoError(t, err)
	second, err := store.CreateProject(wizard.NewState(0))
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, store.SaveState(first, sampleState()))

	list, err := store.ListProjects()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first, list[0].ID)
	assert.Equal(t, second, list[1].ID)
}

func TestCurrentProject(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.CurrentProject()
	assert.ErrorIs(t, err, ErrNotFound)

	id, err := store.CreateProject(wizard.NewState(0))
	require.NoError(t, err)
	require.NoError(t, store.SetCurrentProject(id))
	require.NoError(t, store.SetCurrentProject(id))

	got, err := store.CurrentProject()
	require.NoError(t, err)
	assert.Equal(t, id, got)

	require.NoError(t, store.DeleteProject(id))
	_, err = store.CurrentProject()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteProject(id), ErrNotFound)
}

func TestChatTranscript(t *testing.T) {
	store := setupTestStore(t)
	id, err := store.CreateProject(wizard.NewState(0))
	require.NoError(t, err)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.AppendChatMessage(id, chat.Message{
		SessionID: "s-1", Sender: chat.SenderBot, Content: "Which auth?", Timestamp: base,
	}))
	require.NoError(t, store.AppendChatMessage(id, chat.Message{
		MessageID: "u-1", SessionID: "s-1", Sender: chat.SenderUser, Content: "JWT",
		MessageType: chat.TypeAnswer, Timestamp: base.Add(time.Second),
	}))
	require.NoError(t, store.AppendChatMessage(id, chat.Message{
		SessionID: "s-2", Sender: chat.SenderBot, Content: "Tables?", Timestamp: base.Add(2 * time.Second),
	}))

	all, err := store.ChatTranscript(id, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Which auth?", all[0].Content)
	assert.Equal(t, "info", all[0].MessageType)
	assert.Equal(t, "u-1", all[1].ID)
	assert.Equal(t, "answer", all[1].MessageType)
	assert.Equal(t, base.Add(time.Second), all[1].CreatedAt)

	s1, err := store.ChatTranscript(id, "s-1")
	require.NoError(t, err)
	assert.Len(t, s1, 2)

	assert.Error(t, store.AppendChatMessage("no-such-project", chat.Message{Content: "x"}),
		"transcript rows require an existing project")

	require.NoError(t, store.DeleteProject(id))
	gone, err := store.ChatTranscript(id, "")
	require.NoError(t, err)
	assert.Empty(t, gone)
}

func TestNewSQLiteStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	id, err := store.CreateProject(sampleState())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	assert.Equal(t, dir, reopened.BasePath())

	got, err := reopened.LoadState(id, 0)
	require.NoError(t, err)
	assert.Equal(t, "payments", got.ProjectName)
}
