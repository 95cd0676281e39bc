package chatclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahirxmc/nova-agent-2/internal/domain"
)

func TestThreadRejectsSendWhileStreaming(t *testing.T) {
	started := make(chan *domain.ChatRequest, 1)
	release := make(chan struct{})

	stream := func(ctx context.Context, req *domain.ChatRequest, budget time.Duration, msg *Message) error {
		msg.transition(domain.MessageStateIdle, domain.MessageStateSending)
		msg.transition(domain.MessageStateSending, domain.MessageStateStreaming)
		started <- req
		<-release
		msg.Append("pong")
		msg.Finalize(domain.MessageStateCompleted, msg.Text(), "", true)
		return nil
	}
	thread := NewThread(stream, "developer", "conv-1", 20*time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := thread.Send(context.Background(), "ping", nil)
		done <- err
	}()

	req := <-started
	assert.Equal(t, "developer", req.AgentID)
	assert.Equal(t, "conv-1", req.ConversationID)
	require.Len(t, req.Messages, 1)

	_, err := thread.Send(context.Background(), "again", nil)
	assert.ErrorIs(t, err, ErrStreamActive)

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "ping"},
		{Role: domain.RoleAssistant, Content: "pong"},
	}, thread.History())
}

func TestThreadSendsHistoryAndSkipsFailedReplies(t *testing.T) {
	var seen [][]domain.ChatMessage
	calls := 0
	stream := func(ctx context.Context, req *domain.ChatRequest, budget time.Duration, msg *Message) error {
		seen = append(seen, req.Messages)
		calls++
		msg.transition(domain.MessageStateIdle, domain.MessageStateSending)
		if calls == 1 {
			msg.Finalize(domain.MessageStateErrored, "Error: boom", "boom", true)
			return &RemoteError{Message: "boom"}
		}
		msg.Finalize(domain.MessageStateCompleted, "second answer", "", true)
		return nil
	}
	thread := NewThread(stream, "", "", time.Second)

	msg, err := thread.Send(context.Background(), "one", nil)
	require.Error(t, err)
	assert.Equal(t, domain.MessageStateErrored, msg.Snapshot().State)

	_, err = thread.Send(context.Background(), "two", nil)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Len(t, seen[1], 2)
	assert.Equal(t, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "one"},
		{Role: domain.RoleUser, Content: "two"},
		{Role: domain.RoleAssistant, Content: "second answer"},
	}, thread.History())
}
