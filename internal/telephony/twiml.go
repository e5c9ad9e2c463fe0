// Package telephony is the Twilio adapter: webhook parsing, signature
// verification, and TwiML rendering. It deliberately avoids the provider
// SDK; the wire surface is small enough to own.
package telephony

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/mikhlas911/medizap-ai/internal/conversation"
)

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Rate    string   `xml:"rate,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Timeout       int      `xml:"timeout,attr"`
	SpeechTimeout int      `xml:"speechTimeout,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	Enhanced      bool     `xml:"enhanced,attr"`
	Say           twimlSay `xml:"Say"`
}

type twimlDial struct {
	XMLName xml.Name `xml:"Dial"`
	Timeout int      `xml:"timeout,attr"`
	Number  string   `xml:"Number"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

func say(text string) twimlSay {
	return twimlSay{Voice: "alice", Rate: "medium", Text: text}
}

const (
	promptSpeak   = "Please speak your response."
	promptNoInput = "I didn't hear anything. Let me transfer you to our staff."
	promptHold    = "Please hold while I transfer you."
	promptNoStaff = "I'm sorry, but our staff is not available right now. Please try calling back later."
)

// RenderConfig carries the call-flow knobs the TwiML needs.
type RenderConfig struct {
	// ActionURL is where Twilio posts the gathered speech.
	ActionURL string
	// TransferNumber is the human fallback line in E.164.
	TransferNumber string
	// GatherTimeoutSecs is how long to wait for the caller to start talking.
	GatherTimeoutSecs int
	// SpeechTimeoutSecs is the trailing-silence cutoff.
	SpeechTimeoutSecs int
	// DialTimeoutSecs is how long the transfer leg rings.
	DialTimeoutSecs int
}

func (c RenderConfig) withDefaults() RenderConfig {
	if c.GatherTimeoutSecs <= 0 {
		c.GatherTimeoutSecs = 10
	}
	if c.SpeechTimeoutSecs <= 0 {
		c.SpeechTimeoutSecs = 3
	}
	if c.DialTimeoutSecs <= 0 {
		c.DialTimeoutSecs = 30
	}
	return c
}

// RenderTwiML turns an abstract dialogue reply into the markup Twilio
// executes. Every shape speaks the reply text first; what follows depends
// on the action:
//
//	gather:   listen for speech, transfer if the caller stays silent
//	transfer: dial the staff line, apologize and hang up if unanswered
//	hangup:   end the call
func RenderTwiML(reply conversation.Reply, cfg RenderConfig) (string, error) {
	cfg = cfg.withDefaults()

	r := twimlResponse{Verbs: []any{say(reply.Text)}}

	switch reply.Action {
	case conversation.ActionHangup:
		r.Verbs = append(r.Verbs, twimlHangup{})

	case conversation.ActionTransfer:
		r.Verbs = append(r.Verbs,
			say(promptHold),
			twimlDial{Timeout: cfg.DialTimeoutSecs, Number: cfg.TransferNumber},
			say(promptNoStaff),
			twimlHangup{},
		)

	case conversation.ActionGather:
		r.Verbs = append(r.Verbs,
			twimlGather{
				Input:         "speech",
				Timeout:       cfg.GatherTimeoutSecs,
				SpeechTimeout: cfg.SpeechTimeoutSecs,
				Action:        cfg.ActionURL,
				Method:        "POST",
				Enhanced:      true,
				Say:           say(promptSpeak),
			},
			say(promptNoInput),
			twimlDial{Timeout: cfg.DialTimeoutSecs, Number: cfg.TransferNumber},
		)

	default:
		return "", fmt.Errorf("telephony: unknown reply action %q", reply.Action)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
