// internal/debate/engine_test.go
package debate

import (
	"fmt"
	"testing"
	"time"

	"github.com/jason-s-yu/argumentor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// newTestEngine returns an engine with a fixed clock, sequential ids and a coin that always lands on first.
func newTestEngine(rules Rules, first models.Side) *Engine {
	n := 0
	return &Engine{
		Rules: rules,
		Now:   func() time.Time { return testNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("msg-%d", n)
		},
		PickSide: func() models.Side { return first },
	}
}

// activeDebate creates a room, joins it and starts it with first to speak.
func activeDebate(t *testing.T, e *Engine) models.Debate {
	t.Helper()
	d, err := e.Create("ABC123", "Pineapple on pizza", "", "", "Alice")
	require.NoError(t, err)
	d, err = e.Join(d, "Bob")
	require.NoError(t, err)
	if d.Status == models.StatusSideSelection {
		d, err = e.SelectSide(d, "B")
		require.NoError(t, err)
	}
	require.Equal(t, models.StatusActive, d.Status)
	return d
}

func TestCreate(t *testing.T) {
	e := newTestEngine(DefaultRules(), models.SideA)

	d, err := e.Create("ABC123", "  Cats vs dogs  ", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Cats vs dogs", d.Topic)
	assert.Equal(t, models.StatusWaiting, d.Status)
	assert.True(t, d.SideAJoined)
	assert.False(t, d.SideBJoined)
	assert.Equal(t, DefaultSideALabel, d.TopicSideA)
	assert.Equal(t, DefaultSideBLabel, d.TopicSideB)
	assert.Equal(t, DefaultSideAName, d.SideAName)
	assert.Equal(t, 3, d.ArgumentsRemainingA)
	assert.Equal(t, 3, d.ArgumentsRemainingB)
	assert.Nil(t, d.CurrentTurn)
	assert.Nil(t, d.TurnEndsAt)
	assert.Empty(t, d.Messages)
	assert.NotNil(t, d.Messages)
}

func TestCreateRejectsBadInput(t *testing.T) {
	e := newTestEngine(DefaultRules(), models.SideA)

	_, err := e.Create("ABC123", "   ", "", "", "Alice")
	assert.ErrorIs(t, err, ErrInvalidTopic)

	_, err = e.Create("ABC123", "Topic", "Yes", "Yes", "Alice")
	assert.ErrorIs(t, err, ErrInvalidTopicSide)
}

func TestJoinEntersSideSelection(t *testing.T) {
	e := newTestEngine(DefaultRules(), models.SideA)
	d, err := e.Create("ABC123", "Topic", "", "", "Alice")
	require.NoError(t, err)

	next, err := e.Join(d, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSideSelection, next.Status)
	assert.True(t, next.SideBJoined)
	assert.Equal(t, DefaultSideBName, next.SideBName)
	assert.Nil(t, next.CurrentTurn)
	assert.Nil(t, next.TurnEndsAt)

	// input untouched
	assert.False(t, d.SideBJoined)
	assert.Equal(t, models.StatusWaiting, d.Status)
}

func TestJoinStartsImmediatelyWithoutSideSelection(t *testing.T) {
	rules := DefaultRules()
	rules.SideSelection = false
	e := newTestEngine(rules, models.SideB)
	d, err := e.Create("ABC123", "Topic", "", "", "Alice")
	require.NoError(t, err)

	next, err := e.Join(d, "Bob")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, next.Status)
	require.NotNil(t, next.CurrentTurn)
	assert.Equal(t, models.SideB, *next.CurrentTurn)
	require.NotNil(t, next.TurnEndsAt)
	assert.Equal(t, testNow.Add(60*time.Second), *next.TurnEndsAt)
}

func TestJoinErrors(t *testing.T) {
	e := newTestEngine(DefaultRules(), models.SideA)
	d, err := e.Create("ABC123", "Topic", "", "", "Alice")
	require.NoError(t, err)
	d, err = e.Join(d, "Bob")
	require.NoError(t, err)

	_, err = e.Join(d, "Carol")
	assert.ErrorIs(t, err, ErrRoomFull)

	// A room past WAITING that somehow lost its second seat still refuses joins.
	d.SideBJoined = false
	_, err = e.Join(d, "Carol")
	assert.ErrorIs(t, err, ErrDebateNotActive)
}

func TestSelectSide(t *testing.T) {
	e := newTestEngine(DefaultRules(), models.SideA)
	d, err := e.Create("ABC123", "Topic", "Pro", "Con", "Alice")
	require.NoError(t, err)
	d, err = e.Join(d, "Bob")
	require.NoError(t, err)

	t.Run("choice A swaps labels", func(t *testing.T) {
		next, err := e.SelectSide(d, "A")
		require.NoError(t, err)
		assert.Equal(t, "Con", next.TopicSideA)
		assert.Equal(t, "Pro", next.TopicSideB)
		assert.Equal(t, models.StatusActive, next.Status)
		assert.Equal(t, models.SideA, next.Turn())
		assert.Equal(t, testNow.Add(DefaultTurnDuration), *next.TurnEndsAt)
	})

	t.Run("choice B keeps labels", func(t *testing.T) {
		next, err := e.SelectSide(d, "B")
		require.NoError(t, err)
		assert.Equal(t, "Pro", next.TopicSideA)
		assert.Equal(t, "Con", next.TopicSideB)
	})

	t.Run("invalid choice", func(t *testing.T) {
		_, err := e.SelectSide(d, "C")
		assert.ErrorIs(t, err, ErrInvalidTopicSide)
	})

	t.Run("outside side selection", func(t *testing.T) {
		active, err := e.SelectSide(d, "B")
		require.NoError(t, err)
		_, err = e.SelectSide(active, "B")
		assert.ErrorIs(t, err, ErrDebateNotActive)
	})
}

func TestApplyMessageAdvancesTurn(t *testing.T) {
	e := newTestEngine(DefaultRules(), models.SideA)
	d := activeDebate(t, e)

	next, msg := e.ApplyMessage(d, models.SideA, "  first point  ")
	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, "first point", msg.Content)
	assert.Equal(t, models.SideA, msg.Side)
	assert.Equal(t, testNow, msg.Timestamp)

	require.Len(t, next.Messages, 1)
	assert.Equal(t, msg, next.Messages[0])
	assert.Equal(t, 2, next.ArgumentsRemainingA)
	assert.Equal(t, 3, next.ArgumentsRemainingB)
	assert.Equal(t, models.SideB, next.Turn())
	assert.Equal(t, models.StatusActive, next.Status)

	// no aliasing with the input
	assert.Empty(t, d.Messages)
	assert.Equal(t, models.SideA, d.Turn())
}

func TestFullDebateEnds(t *testing.T) {
	e := newTestEngine(DefaultRules(), models.SideA)
	d := activeDebate(t, e)

	side := models.SideA
	for i := 0; i < 6; i++ {
		require.NoError(t, ValidateTurn(&d, side), "message %d", i)
		d, _ = e.ApplyMessage(d, side, fmt.Sprintf("argument %d", i))
		side = side.Opposite()
	}
	assert.Equal(t, models.StatusEnded, d.Status)
	assert.Nil(t, d.CurrentTurn)
	assert.Nil(t, d.TurnEndsAt)
	assert.Equal(t, 0, d.ArgumentsRemainingA)
	assert.Equal(t, 0, d.ArgumentsRemainingB)
	assert.Len(t, d.Messages, 6)
}

func TestDebateEndsWhenLastTurnTimesOut(t *testing.T) {
	e := newTestEngine(DefaultRules(), models.SideA)
	d := activeDebate(t, e)

	// A speaks three times, B twice, then B lets the final turn lapse.
	side := models.SideA
	for i := 0; i < 5; i++ {
		require.NoError(t, ValidateTurn(&d, side), "message %d", i)
		d, _ = e.ApplyMessage(d, side, fmt.Sprintf("argument %d", i))
		side = side.Opposite()
	}
	require.Equal(t, models.StatusActive, d.Status)
	require.Equal(t, models.SideB, d.Turn())
	require.Equal(t, 0, d.ArgumentsRemainingA)
	require.Equal(t, 1, d.ArgumentsRemainingB)

	next, changed := e.ApplyTimeout(d)
	require.True(t, changed)
	assert.Equal(t, models.StatusEnded, next.Status)
	assert.Equal(t, 0, next.ArgumentsRemainingA)
	assert.Equal(t, 0, next.ArgumentsRemainingB)
	assert.Nil(t, next.CurrentTurn)
	assert.Nil(t, next.TurnEndsAt)
	assert.Len(t, next.Messages, 5)
}

func TestApplyTimeout(t *testing.T) {
	e := newTestEngine(DefaultRules(), models.SideA)
	d := activeDebate(t, e)

	next, changed := e.ApplyTimeout(d)
	require.True(t, changed)
	assert.Equal(t, 2, next.ArgumentsRemainingA)
	assert.Equal(t, 3, next.ArgumentsRemainingB)
	assert.Equal(t, models.SideB, next.Turn())
	assert.Empty(t, next.Messages)
}

func TestApplyTimeoutNoRunningTurn(t *testing.T) {
	e := newTestEngine(DefaultRules(), models.SideA)
	d, err := e.Create("ABC123", "Topic", "", "", "Alice")
	require.NoError(t, err)

	next, changed := e.ApplyTimeout(d)
	assert.False(t, changed)
	assert.Equal(t, d, next)
}

func TestTimeoutEndsWhenNextSpeakerHasNothingLeft(t *testing.T) {
	e := newTestEngine(DefaultRules(), models.SideA)
	d := activeDebate(t, e)
	d.ArgumentsRemainingA = 1
	d.ArgumentsRemainingB = 0

	next, changed := e.ApplyTimeout(d)
	require.True(t, changed)
	assert.Equal(t, models.StatusEnded, next.Status)
	assert.Equal(t, 0, next.ArgumentsRemainingA)
	assert.Nil(t, next.CurrentTurn)
}

func TestEndsWhenOpponentExhaustedEarly(t *testing.T) {
	e := newTestEngine(DefaultRules(), models.SideA)
	d := activeDebate(t, e)
	d.ArgumentsRemainingA = 2
	d.ArgumentsRemainingB = 0

	next, _ := e.ApplyMessage(d, models.SideA, "point")
	assert.Equal(t, models.StatusEnded, next.Status)
	assert.Equal(t, 1, next.ArgumentsRemainingA)
}

func TestCountersNeverGoNegative(t *testing.T) {
	e := newTestEngine(DefaultRules(), models.SideA)
	d := activeDebate(t, e)
	d.ArgumentsRemainingA = 0
	d.ArgumentsRemainingB = 2

	next, changed := e.ApplyTimeout(d)
	require.True(t, changed)
	assert.Equal(t, 0, next.ArgumentsRemainingA)
	assert.Equal(t, models.StatusActive, next.Status)
	assert.Equal(t, models.SideB, next.Turn())
}

func TestTimeoutsAloneEndTheDebate(t *testing.T) {
	e := newTestEngine(DefaultRules(), models.SideB)
	d := activeDebate(t, e)

	steps := 0
	for d.Status == models.StatusActive {
		var changed bool
		d, changed = e.ApplyTimeout(d)
		require.True(t, changed)
		steps++
		require.LessOrEqual(t, steps, 6)
	}
	assert.Equal(t, 6, steps)
	assert.Equal(t, models.StatusEnded, d.Status)
	assert.Empty(t, d.Messages)
}
