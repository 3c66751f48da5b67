package main

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"trackbridge/internal/chat"
	"trackbridge/internal/flood"
)

func chatterMessage(text string) *chat.Message {
	return &chat.Message{
		ID:       "1",
		ChatID:   "-100",
		SenderID: "7",
		Text:     text,
	}
}

func TestMessageHandler_ChatterDoesNotChargeFloodBudget(t *testing.T) {
	floodgate := flood.New(1)
	defer floodgate.Stop()

	resolved := 0
	handler := newMessageHandler(context.Background(), floodgate,
		func(_ context.Context, _ string) (string, bool) {
			resolved++
			return "converted", true
		},
		func(_ context.Context, _, _, _ string) (string, error) { return "2", nil },
		zap.NewNop(),
	)

	// A talkative sender: plenty of plain chatter, then one actual link.
	for i := 0; i < 20; i++ {
		handler(chatterMessage("what a tune"))
	}
	handler(chatterMessage("listen https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"))

	if resolved != 1 {
		t.Errorf("resolved = %d, want 1: the link after chatter must still convert", resolved)
	}
}

func TestMessageHandler_LinksChargeFloodBudget(t *testing.T) {
	floodgate := flood.New(2)
	defer floodgate.Stop()

	resolved := 0
	handler := newMessageHandler(context.Background(), floodgate,
		func(_ context.Context, _ string) (string, bool) {
			resolved++
			return "converted", true
		},
		func(_ context.Context, _, _, _ string) (string, error) { return "2", nil },
		zap.NewNop(),
	)

	for i := 0; i < 5; i++ {
		handler(chatterMessage("https://tidal.com/browse/track/42"))
	}

	if resolved != 2 {
		t.Errorf("resolved = %d, want 2: conversions above the limit must be dropped", resolved)
	}
}

func TestMessageHandler_RepliesToResolvedLink(t *testing.T) {
	floodgate := flood.New(10)
	defer floodgate.Stop()

	var sentChat, sentReplyTo, sentText string
	handler := newMessageHandler(context.Background(), floodgate,
		func(_ context.Context, text string) (string, bool) {
			if !strings.Contains(text, "tidal.com") {
				t.Errorf("resolve called with %q, want the original message text", text)
			}
			return "🎵 converted", true
		},
		func(_ context.Context, chatID, replyToID, text string) (string, error) {
			sentChat, sentReplyTo, sentText = chatID, replyToID, text
			return "2", nil
		},
		zap.NewNop(),
	)

	handler(&chat.Message{
		ID:       "17",
		ChatID:   "-100",
		SenderID: "7",
		Text:     "https://tidal.com/browse/track/42",
	})

	if sentChat != "-100" || sentReplyTo != "17" {
		t.Errorf("reply sent to chat %q msg %q, want -100/17", sentChat, sentReplyTo)
	}
	if sentText != "🎵 converted" {
		t.Errorf("reply text = %q, want the resolved reply", sentText)
	}
}

func TestMessageHandler_NoReplyWithoutResolution(t *testing.T) {
	floodgate := flood.New(10)
	defer floodgate.Stop()

	sends := 0
	handler := newMessageHandler(context.Background(), floodgate,
		func(_ context.Context, _ string) (string, bool) { return "", false },
		func(_ context.Context, _, _, _ string) (string, error) {
			sends++
			return "", nil
		},
		zap.NewNop(),
	)

	handler(chatterMessage("https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"))

	if sends != 0 {
		t.Errorf("sends = %d, want 0 when resolution yields no reply", sends)
	}
}

func TestServerFlagsRegistered(t *testing.T) {
	for _, flag := range []string{"server-host", "server-port", "flood-limit", "match-threshold"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("flag --%s is not registered", flag)
		}
	}
}
