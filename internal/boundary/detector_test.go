package boundary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func userTurn(i int, at time.Time, prompt string) Turn {
	return Turn{Index: i, Timestamp: at, IsUserPrompt: true, PromptText: prompt}
}

func toolTurn(i int, at time.Time, files ...string) Turn {
	return Turn{Index: i, Timestamp: at, FilesModified: files}
}

func TestDetectSingleStrongUserPromptIsBoundary(t *testing.T) {
	base := time.Now()
	turns := []Turn{
		userTurn(0, base, "set up the project skeleton"),
		toolTurn(1, base.Add(time.Minute), "main.go"),
		userTurn(2, base.Add(2*time.Minute), "now add the HTTP handler please"),
	}

	boundaries := Detect(turns)
	assert.Equal(t, []int{2}, boundaries)
}

func TestDetectTrivialPromptAloneIsNotBoundary(t *testing.T) {
	base := time.Now()
	turns := []Turn{
		userTurn(0, base, "start the task"),
		userTurn(1, base.Add(time.Minute), "ok"),
		userTurn(2, base.Add(2*time.Minute), "yes"),
	}

	boundaries := Detect(turns)
	assert.Empty(t, boundaries, "trivial prompts alone should never cross the threshold")
}

func TestDetectTimeGapAddsToUserPromptSignal(t *testing.T) {
	base := time.Now()
	turns := []Turn{
		userTurn(0, base, "investigate the bug"),
		userTurn(1, base.Add(10*time.Minute), "now let's fix the root cause"),
	}

	boundaries := Detect(turns)
	assert.Equal(t, []int{1}, boundaries, "a >=5min gap plus a real prompt should combine past the threshold")
}

func TestDetectTaskCompletionIsBoundary(t *testing.T) {
	base := time.Now()
	turns := []Turn{
		userTurn(0, base, "implement the feature"),
		{Index: 1, Timestamp: base.Add(time.Minute), TaskCompleted: true},
	}

	boundaries := Detect(turns)
	assert.Equal(t, []int{1}, boundaries)
}

func TestDetectScoresEachTurnOnItsOwn(t *testing.T) {
	base := time.Now()
	turns := []Turn{
		userTurn(0, base, "first substantive request here"),
		userTurn(1, base.Add(time.Minute), "second substantive request here"),
		{Index: 2, Timestamp: base.Add(2 * time.Minute), PlanApproved: true},
	}

	boundaries := Detect(turns)
	// Turn 1 crosses threshold on its own (user_prompt=10); turn 2's
	// plan_approved=7 is scored on its own, with no surplus carried over
	// from turn 1, and still crosses the threshold alone.
	assert.Equal(t, []int{1, 2}, boundaries)
}
