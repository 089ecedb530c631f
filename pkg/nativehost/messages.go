package nativehost

import "github.com/hazyhaar/scoutlens/pkg/envelope"

// Inbound message types, sent by the extension's background shim.
const (
	TypeSelectionSearch = "SELECTION_SEARCH" // context-menu click on a selection
	TypeManualSearch    = "MANUAL_SEARCH"    // popup search or list-item pick
	TypeCommandResult   = "COMMAND_RESULT"   // outcome of a COMMAND
)

// Outbound message types.
const (
	TypeReply   = "REPLY"
	TypeCommand = "COMMAND"
)

// Command operations the shim maps onto chrome.tabs / chrome.scripting.
const (
	OpSendMessage   = "tabs.sendMessage"
	OpInsertCSS     = "scripting.insertCSS"
	OpExecuteScript = "scripting.executeScript"
)

type inboundMessage struct {
	Type string `json:"type"`

	// SELECTION_SEARCH
	SelectionText string `json:"selectionText,omitempty"`
	TabID         int    `json:"tabId,omitempty"`

	// MANUAL_SEARCH
	Query   string `json:"query,omitempty"`
	IsURL   bool   `json:"isUrl,omitempty"`
	ReplyID string `json:"replyId,omitempty"`

	// COMMAND_RESULT
	ID    string `json:"id,omitempty"`
	OK    bool   `json:"ok,omitempty"`
	Error string `json:"error,omitempty"`
}

type outboundMessage struct {
	Type string `json:"type"`

	// REPLY
	ReplyID string             `json:"replyId,omitempty"`
	Payload *envelope.Envelope `json:"payload,omitempty"`

	// COMMAND
	ID      string             `json:"id,omitempty"`
	Op      string             `json:"op,omitempty"`
	TabID   int                `json:"tabId,omitempty"`
	Message *envelope.Envelope `json:"message,omitempty"`
	Files   []string           `json:"files,omitempty"`
}

type commandResult struct {
	ok  bool
	err string
}
