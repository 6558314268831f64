package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeedSystemTurnIsAlwaysFirst(t *testing.T) {
	s := New()
	s.SeedSystemTurn("you are a customer")
	s.AppendUserTurn("hi", 1)
	s.AppendAssistantTurn("hello", 2)

	require.Equal(t, RoleSystem, s.Conversation[0].Role)
	require.Equal(t, "you are a customer", s.Conversation[0].Content)
	require.Len(t, s.Conversation, 3)
}

func TestInterruptNotifiesOnlyOncePerUtterance(t *testing.T) {
	s := New()
	require.True(t, s.Interrupt())
	require.False(t, s.Interrupt())
	require.Equal(t, 2, s.InterruptionCount)
	require.Equal(t, int64(2), s.TTSEpoch)
}

func TestResetForCallPreservesUserID(t *testing.T) {
	s := New()
	s.UserID = "u1"
	s.SeedSystemTurn("p")
	s.AppendUserTurn("hi", 1)
	s.InterruptionCount = 3

	s.ResetForCall()

	require.Equal(t, "u1", s.UserID)
	require.Empty(t, s.Conversation)
	require.Zero(t, s.InterruptionCount)
	require.True(t, s.AutoDifficulty)
}

func TestTurnCount(t *testing.T) {
	s := New()
	s.SeedSystemTurn("p")
	require.Equal(t, 0, s.TurnCount())
	s.AppendUserTurn("u1", 1)
	s.AppendAssistantTurn("a1", 2)
	require.Equal(t, 1, s.TurnCount())
	s.AppendUserTurn("u2", 3)
	s.AppendAssistantTurn("a2", 4)
	require.Equal(t, 2, s.TurnCount())
}
