package telephony

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikhlas911/medizap-ai/internal/conversation"
)

var testRenderConfig = RenderConfig{
	ActionURL:         "https://api.example.com/webhooks/twilio/voice",
	TransferNumber:    "+15550100100",
	GatherTimeoutSecs: 10,
	SpeechTimeoutSecs: 3,
	DialTimeoutSecs:   30,
}

func TestRenderGather(t *testing.T) {
	out, err := RenderTwiML(conversation.Reply{
		Text:   "May I please have your name?",
		Action: conversation.ActionGather,
	}, testRenderConfig)
	require.NoError(t, err)

	assert.Contains(t, out, `<?xml version="1.0" encoding="UTF-8"?>`)
	assert.Contains(t, out, "May I please have your name?")
	assert.Contains(t, out, `<Gather input="speech" timeout="10" speechTimeout="3"`)
	assert.Contains(t, out, `action="https://api.example.com/webhooks/twilio/voice"`)
	assert.Contains(t, out, `method="POST"`)
	assert.Contains(t, out, `enhanced="true"`)
	// No-input fallback dials the staff line.
	assert.Contains(t, out, "I didn&#39;t hear anything")
	assert.Contains(t, out, "<Number>+15550100100</Number>")
	assert.NotContains(t, out, "<Hangup>")
}

func TestRenderTransfer(t *testing.T) {
	out, err := RenderTwiML(conversation.Reply{
		Text:   "Let me transfer you.",
		Action: conversation.ActionTransfer,
	}, testRenderConfig)
	require.NoError(t, err)

	assert.Contains(t, out, "Let me transfer you.")
	assert.Contains(t, out, "Please hold while I transfer you.")
	assert.Contains(t, out, `<Dial timeout="30">`)
	assert.Contains(t, out, "<Number>+15550100100</Number>")
	assert.Contains(t, out, "staff is not available right now")
	assert.Contains(t, out, "<Hangup>")
	assert.NotContains(t, out, "<Gather")
}

func TestRenderHangup(t *testing.T) {
	out, err := RenderTwiML(conversation.Reply{
		Text:   "Have a great day!",
		Action: conversation.ActionHangup,
	}, testRenderConfig)
	require.NoError(t, err)

	assert.Contains(t, out, "Have a great day!")
	assert.Contains(t, out, "<Hangup>")
	assert.NotContains(t, out, "<Dial")
}

func TestRenderEscapesReplyText(t *testing.T) {
	out, err := RenderTwiML(conversation.Reply{
		Text:   `Tom & Jerry <say "hi">`,
		Action: conversation.ActionHangup,
	}, testRenderConfig)
	require.NoError(t, err)

	assert.Contains(t, out, "Tom &amp; Jerry &lt;say")
	assert.False(t, strings.Contains(out, `<say "hi">`))
}

func TestRenderUnknownAction(t *testing.T) {
	_, err := RenderTwiML(conversation.Reply{Action: conversation.Action("dance")}, testRenderConfig)
	assert.Error(t, err)
}

func TestRenderDefaultTimeouts(t *testing.T) {
	out, err := RenderTwiML(conversation.Reply{
		Text:   "hello",
		Action: conversation.ActionGather,
	}, RenderConfig{ActionURL: "/voice", TransferNumber: "+15550100100"})
	require.NoError(t, err)

	assert.Contains(t, out, `timeout="10"`)
	assert.Contains(t, out, `speechTimeout="3"`)
	assert.Contains(t, out, `<Dial timeout="30">`)
}
