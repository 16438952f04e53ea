package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/gateway"
	"github.com/Galaxy-Core-Platform/sdlc-agent/internal/progress"
)

func strPtr(s string) *string { return &s }

func TestSetStepData_CascadesDownstreamCompleted(t *testing.T) {
	for n := StepAPIs; n <= StepTests; n++ {
		t.Run(n.String(), func(t *testing.T) {
			c := newTestController(newFakeProvider())
			seedCompleted(c, AllSteps()...)

			require.NoError(t, c.SetStepData(n, StepPatch{Artifact: strPtr("edited")}))

			s := c.State()
			for _, m := range AllSteps() {
				rec := s.Steps[m]
				switch {
				case m < n:
					assert.True(t, rec.Completed, "step %d should be untouched", m)
					assert.Equal(t, 80, rec.Score)
					assert.NotEmpty(t, rec.Recommendations)
				case m == n:
					assert.Equal(t, "edited", rec.Content())
					assert.True(t, rec.Completed)
				default:
					assert.False(t, rec.Completed, "step %d should be reset", m)
					assert.False(t, rec.HasArtifact())
					assert.Zero(t, rec.Score)
					assert.Empty(t, rec.Recommendations)
				}
			}
		})
	}
}

func TestSetStepData_OnlyResetsCompletedDownstream(t *testing.T) {
	c := newTestController(newFakeProvider())
	seedCompleted(c, StepSetup, StepAPIs, StepModel)
	seedArtifacts(c, StepSchema)

	require.NoError(t, c.SetStepData(StepAPIs, StepPatch{Artifact: strPtr("openapi: 3.1.0")}))

	s := c.State()
	assert.False(t, s.Steps[StepModel].HasArtifact())
	assert.True(t, s.HasArtifact(StepSchema), "incomplete downstream steps keep their artifacts")
	assert.Equal(t, LevelWarning, s.Log.Entries()[0].Level)
	assert.Contains(t, s.Log.Entries()[0].Message, "reset steps: 3")
}

func TestSetStepData_NotCompletedNoCascade(t *testing.T) {
	c := newTestController(newFakeProvider())
	seedCompleted(c, StepModel)
	seedArtifacts(c, StepAPIs)

	score := 140
	require.NoError(t, c.SetStepData(StepAPIs, StepPatch{Score: &score}))

	s := c.State()
	assert.True(t, s.Steps[StepModel].Completed)
	assert.Equal(t, 100, s.Steps[StepAPIs].Score)
	assert.Zero(t, s.Log.Len())
}

func TestSetStepData_ClearingArtifactUncompletes(t *testing.T) {
	c := newTestController(newFakeProvider())
	seedCompleted(c, StepAPIs)

	require.NoError(t, c.SetStepData(StepAPIs, StepPatch{Artifact: strPtr("  ")}))

	s := c.State()
	assert.False(t, s.HasArtifact(StepAPIs))
	assert.False(t, s.Steps[StepAPIs].Completed)
}

func TestSetStepData_InvalidStep(t *testing.T) {
	c := newTestController(newFakeProvider())
	assert.ErrorIs(t, c.SetStepData(9, StepPatch{}), ErrInvalidStep)
}

func TestGenerate_RejectsStepOne(t *testing.T) {
	p := newFakeProvider()
	c := newTestController(p)
	seedArtifacts(c, StepSetup)

	assert.ErrorIs(t, c.Generate(context.Background(), StepSetup), ErrNotGeneratable)
	assert.Zero(t, p.count("generate"))
}

func TestGenerate_DependencyGating(t *testing.T) {
	tests := []struct {
		name   string
		seeded []StepID
		step   StepID
	}{
		{"apis without requirements", nil, StepAPIs},
		{"model without apis", []StepID{StepSetup}, StepModel},
		{"schema without model", []StepID{StepSetup, StepAPIs}, StepSchema},
		{"logic without schema", []StepID{StepSetup, StepAPIs, StepModel}, StepLogic},
		{"logic without apis", []StepID{StepSetup, StepModel, StepSchema}, StepLogic},
		{"tests without logic", []StepID{StepSetup, StepAPIs, StepModel, StepSchema}, StepTests},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider()
			c := newTestController(p)
			seedArtifacts(c, tt.seeded...)

			err := c.Generate(context.Background(), tt.step)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMissingDependency)
			assert.Zero(t, p.count("generate"))
			assert.False(t, c.State().HasArtifact(tt.step))
			assert.False(t, c.State().CanGenerate(tt.step))
		})
	}
}

func TestGenerate_MissingRequirementsIsBothErrors(t *testing.T) {
	c := newTestController(newFakeProvider())
	err := c.Generate(context.Background(), StepAPIs)
	assert.ErrorIs(t, err, ErrMissingDependency)
	assert.ErrorIs(t, err, ErrNoRequirements)
}

func TestGenerate_InputMapping(t *testing.T) {
	var got []gateway.GenerateRequest
	p := newFakeProvider()
	p.generate = func(_ context.Context, req gateway.GenerateRequest) (string, error) {
		got = append(got, req)
		return "out", nil
	}
	c := newTestController(p)
	seedArtifacts(c, AllSteps()...)

	for _, id := range []StepID{StepAPIs, StepModel, StepSchema, StepLogic, StepTests} {
		require.NoError(t, c.Generate(context.Background(), id))
	}
	require.Len(t, got, 5)

	assert.Equal(t, "content 1", got[0].Input)
	assert.Equal(t, "generateApi", got[0].Operation)
	assert.Equal(t, "out", got[1].Input, "step 3 reads step 2 as just regenerated")
	assert.Equal(t, "generateDataModel", got[1].Operation)
	assert.Equal(t, "generateDatabaseSchema", got[2].Operation)
	assert.Equal(t, "API: out\n\nSchema: out", got[3].Input)
	assert.Equal(t, "generateBusinessLogic", got[3].Operation)
	assert.Equal(t, 6, got[4].Step)
	assert.Equal(t, "generateTestSuite", got[4].Operation)
}

func TestGenerate_FailureLeavesStateUntouched(t *testing.T) {
	p := newFakeProvider()
	p.generate = func(context.Context, gateway.GenerateRequest) (string, error) {
		return "", errors.New("backend unreachable")
	}
	c := newTestController(p)
	seedArtifacts(c, StepSetup)
	before := c.State()

	err := c.Generate(context.Background(), StepAPIs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unreachable")

	after := c.State()
	assert.Equal(t, before.Steps, after.Steps)
	assert.Equal(t, before.Log.Len(), after.Log.Len())
}

func TestGenerate_EmptyArtifactRejected(t *testing.T) {
	p := newFakeProvider()
	p.generate = func(context.Context, gateway.GenerateRequest) (string, error) { return " \n", nil }
	c := newTestController(p)
	seedArtifacts(c, StepSetup)

	assert.ErrorIs(t, c.Generate(context.Background(), StepAPIs), ErrEmptyArtifact)
	assert.False(t, c.State().HasArtifact(StepAPIs))
}

func TestGenerate_FallbackAppendsOneEntry(t *testing.T) {
	c := newTestController(gateway.NewMock())
	require.NoError(t, c.LoadRequirements("payments", "", "Build a payment API"))
	before := c.State().Log.Len()

	require.NoError(t, c.Generate(context.Background(), StepAPIs))

	s := c.State()
	assert.True(t, s.HasArtifact(StepAPIs))
	assert.Contains(t, s.Steps[StepAPIs].Content(), gateway.MockTag)
	assert.Equal(t, KindAPISpec, s.Steps[StepAPIs].Artifact.Kind)
	assert.Equal(t, before+1, s.Log.Len())
	assert.Contains(t, s.Log.Entries()[0].Message, gateway.MockTag)
}

func TestGenerate_FallbackWaitsOnScheduler(t *testing.T) {
	clock := &fakeClock{}
	c := NewController(nil, gateway.NewMock(), Options{Scheduler: progress.NewScheduler(clock)})
	seedArtifacts(c, StepSetup)

	require.NoError(t, c.Generate(context.Background(), StepAPIs))
	assert.Equal(t, []time.Duration{fallbackDelay}, clock.Waits())
}

func TestGenerate_RegeneratingCompletedStepCascades(t *testing.T) {
	c := newTestController(newFakeProvider())
	seedCompleted(c, StepSetup, StepAPIs, StepModel)

	require.NoError(t, c.Generate(context.Background(), StepAPIs))

	s := c.State()
	assert.Equal(t, "artifact for step 2", s.Steps[StepAPIs].Content())
	assert.False(t, s.Steps[StepModel].Completed)
	assert.True(t, s.Steps[StepSetup].Completed)
}

func TestRecommend_RequiresArtifact(t *testing.T) {
	p := newFakeProvider()
	c := newTestController(p)

	_, err := c.Recommend(context.Background(), StepModel)
	assert.ErrorIs(t, err, ErrNoArtifact)
	assert.Zero(t, p.count("assess"))
}

func TestRecommend_StoresListWithoutTouchingScore(t *testing.T) {
	var got gateway.AssessRequest
	p := newFakeProvider()
	p.assess = func(req gateway.AssessRequest) (*gateway.AssessResult, error) {
		got = req
		return &gateway.AssessResult{
			Assessment:      &gateway.Assessment{Overall: 12},
			Recommendations: []gateway.Recommendation{{Category: "Indexes"}, {Category: "Naming"}},
		}, nil
	}
	c := newTestController(p)
	seedArtifacts(c, StepModel, StepSchema)
	score := 55
	require.NoError(t, c.SetStepData(StepSchema, StepPatch{Score: &score}))

	recs, err := c.Recommend(context.Background(), StepSchema)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	s := c.State()
	assert.Equal(t, 55, s.Steps[StepSchema].Score)
	assert.Equal(t, "content 4", s.Steps[StepSchema].Content())
	assert.Len(t, s.Steps[StepSchema].Recommendations, 2)
	assert.Equal(t, "content 3", got.Requirements)
	assert.Equal(t, 4, got.Step)
	assert.Equal(t, "generate_database_schema", got.Operation)
}

func TestRecommend_SendsUpstreamContextPerStep(t *testing.T) {
	tests := []struct {
		step      StepID
		input     string
		operation string
	}{
		{StepSetup, "content 1", ""},
		{StepAPIs, "content 1", "generate_api_specification"},
		{StepModel, "content 2", "generate_data_model"},
		{StepSchema, "content 3", "generate_database_schema"},
		{StepLogic, "content 2\ncontent 4", "generate_business_logic"},
		{StepTests, "content 5", "generate_test_suite"},
	}
	for _, tt := range tests {
		t.Run(tt.step.String(), func(t *testing.T) {
			var got gateway.AssessRequest
			p := newFakeProvider()
			p.assess = func(req gateway.AssessRequest) (*gateway.AssessResult, error) {
				got = req
				return &gateway.AssessResult{}, nil
			}
			c := newTestController(p)
			seedArtifacts(c, StepSetup, StepAPIs, StepModel, StepSchema, StepLogic, StepTests)

			_, err := c.Recommend(context.Background(), tt.step)
			require.NoError(t, err)
			assert.Equal(t, tt.input, got.Requirements)
			assert.Equal(t, tt.operation, got.Operation)
			if tt.step == StepSetup {
				assert.Zero(t, got.Step)
			} else {
				assert.Equal(t, int(tt.step), got.Step)
			}
		})
	}
}

func TestRecommend_EmptyListIsNotAnError(t *testing.T) {
	p := newFakeProvider()
	p.assess = func(gateway.AssessRequest) (*gateway.AssessResult, error) { return &gateway.AssessResult{}, nil }
	c := newTestController(p)
	seedArtifacts(c, StepAPIs)

	recs, err := c.Recommend(context.Background(), StepAPIs)
	require.NoError(t, err)
	assert.Empty(t, recs)

	changed, err := c.Improve(context.Background(), StepAPIs)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestImprove_NoRecommendationsIsNoop(t *testing.T) {
	p := newFakeProvider()
	c := newTestController(p)
	seedArtifacts(c, StepLogic)
	before := c.State()

	changed, err := c.Improve(context.Background(), StepLogic)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Zero(t, p.count("improve"))

	after := c.State()
	assert.Equal(t, before.Steps, after.Steps)
	assert.Equal(t, before.Log.Len(), after.Log.Len())
}

func TestImprove_HeuristicBumpCapped(t *testing.T) {
	p := newFakeProvider()
	c := newTestController(p)
	seedArtifacts(c, StepAPIs)
	score := 95
	recs := []gateway.Recommendation{{Category: "Security", Suggestion: "add auth"}}
	require.NoError(t, c.SetStepData(StepAPIs, StepPatch{Score: &score, Recommendations: &recs}))

	changed, err := c.Improve(context.Background(), StepAPIs)
	require.NoError(t, err)
	assert.True(t, changed)

	s := c.State()
	assert.Equal(t, 100, s.Steps[StepAPIs].Score)
	assert.Empty(t, s.Steps[StepAPIs].Recommendations)
	assert.Equal(t, "content 2 (improved)", s.Steps[StepAPIs].Content())
}

func TestImprove_UsesNewAssessment(t *testing.T) {
	var got gateway.ImproveRequest
	p := newFakeProvider()
	p.improve = func(req gateway.ImproveRequest) (*gateway.ImproveResult, error) {
		got = req
		return &gateway.ImproveResult{
			ImprovedRequirements: "better",
			NewAssessment:        &gateway.Assessment{Overall: 77.6},
		}, nil
	}
	c := newTestController(p)
	seedArtifacts(c, StepModel)
	recs := []gateway.Recommendation{{Category: "Normalization"}}
	require.NoError(t, c.SetStepData(StepModel, StepPatch{Recommendations: &recs}))

	_, err := c.Improve(context.Background(), StepModel)
	require.NoError(t, err)

	assert.Equal(t, 78, c.State().Steps[StepModel].Score)
	assert.Equal(t, 3, got.Step)
	assert.Equal(t, recs, got.Improvements.Recommendations)
}

func TestImprove_TimeoutSurfaces(t *testing.T) {
	p := newFakeProvider()
	p.improve = func(gateway.ImproveRequest) (*gateway.ImproveResult, error) {
		return nil, gateway.ErrImproveTimeout
	}
	c := newTestController(p)
	seedArtifacts(c, StepTests)
	recs := []gateway.Recommendation{{Category: "Coverage"}}
	require.NoError(t, c.SetStepData(StepTests, StepPatch{Recommendations: &recs}))

	_, err := c.Improve(context.Background(), StepTests)
	assert.ErrorIs(t, err, gateway.ErrImproveTimeout)
	assert.Len(t, c.State().Steps[StepTests].Recommendations, 1, "recommendations survive a failed improve")
}

func TestStepBusy(t *testing.T) {
	var once sync.Once
	started := make(chan struct{})
	unblock := make(chan struct{})
	p := newFakeProvider()
	p.generate = func(_ context.Context, req gateway.GenerateRequest) (string, error) {
		if req.Step == int(StepAPIs) {
			once.Do(func() {
				close(started)
				<-unblock
			})
		}
		return "ok", nil
	}
	c := newTestController(p)
	seedArtifacts(c, StepSetup, StepAPIs, StepModel)

	done := make(chan error, 1)
	go func() { done <- c.Generate(context.Background(), StepAPIs) }()
	<-started

	assert.ErrorIs(t, c.Generate(context.Background(), StepAPIs), ErrStepBusy)
	_, err := c.Recommend(context.Background(), StepAPIs)
	assert.ErrorIs(t, err, ErrStepBusy)
	assert.NoError(t, c.Generate(context.Background(), StepSchema), "other steps are not blocked")

	close(unblock)
	require.NoError(t, <-done)
	assert.NoError(t, c.Generate(context.Background(), StepAPIs))
}

func TestMarkComplete(t *testing.T) {
	c := newTestController(newFakeProvider())

	_, err := c.MarkComplete(3)
	assert.ErrorIs(t, err, ErrNoArtifact)

	seedArtifacts(c, StepTests)
	id, err := c.MarkComplete(99)
	require.NoError(t, err)
	assert.Equal(t, StepTests, id)
	assert.True(t, c.State().Steps[StepTests].Completed)
}

func TestNavigate_Clamps(t *testing.T) {
	c := newTestController(newFakeProvider())

	assert.Equal(t, StepTests, c.Navigate(12))
	assert.Equal(t, StepTests, c.State().CurrentStep)
	assert.Equal(t, StepSetup, c.Navigate(-1))

	entries := c.State().Log.Entries()
	require.Len(t, entries, 2)
	assert.True(t, strings.HasPrefix(entries[0].Message, "Navigated to step 1"))
}

func TestOnChangeReceivesSnapshots(t *testing.T) {
	var snaps []*State
	c := NewController(nil, newFakeProvider(), Options{
		Scheduler: progress.Instant(),
		OnChange:  func(s *State) { snaps = append(snaps, s) },
	})

	c.Navigate(2)
	require.NoError(t, c.LoadRequirements("todo", "", "Build a todo API"))

	require.Len(t, snaps, 2)
	assert.Equal(t, StepAPIs, snaps[0].CurrentStep)
	assert.Equal(t, "Build a todo API", snaps[1].Requirements())
}

func TestNoProvider(t *testing.T) {
	c := NewController(nil, nil, Options{Scheduler: progress.Instant()})
	seedArtifacts(c, StepSetup)
	assert.ErrorIs(t, c.Generate(context.Background(), StepAPIs), ErrNoProvider)
}

func TestChatSessionLifecycle(t *testing.T) {
	c := newTestController(newFakeProvider())
	assert.ErrorIs(t, c.SetChatStatus(ChatPaused), ErrNoChatSession)

	c.AttachChatSession(ChatSessionRef{SessionID: "s-1", ContextType: "api_design", Step: StepAPIs})
	require.NoError(t, c.SetChatStatus(ChatPaused))
	assert.Equal(t, ChatPaused, c.State().ChatSession.Status)

	c.DetachChatSession()
	assert.Nil(t, c.State().ChatSession)
}
