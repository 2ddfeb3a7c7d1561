// Package codec renders table documents into per-viewer wire payloads and
// defines the JSON envelopes exchanged over the websocket.
package codec

import (
	"time"

	"felt/card"
	"felt/engine"
)

// SeatView is a seat as one particular viewer may see it. Hole cards are
// present only for the viewer's own seat or after a reveal; everyone else
// gets the count.
type SeatView struct {
	Index       int    `json:"index"`
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	IsBot       bool   `json:"isBot"`

	Chips  int64             `json:"chips"`
	Status engine.SeatStatus `json:"status"`

	Hand         []card.Card `json:"hand,omitempty"`
	HandCount    int         `json:"handCount"`
	HandRevealed bool        `json:"handRevealed"`
	CutCard      card.Card   `json:"cutCard,omitempty"`

	CurrentRoundBet   int64             `json:"currentRoundBet"`
	TotalContribution int64             `json:"totalContribution"`
	LastAction        engine.ActionType `json:"lastAction,omitempty"`

	PendingSitOut   bool             `json:"pendingSitOut,omitempty"`
	PreActionNotice engine.ErrorKind `json:"preActionNotice,omitempty"`
}

// TableView is the document projection sent to clients. The deck, other
// players' concealed cards, and the table password hash never leave the
// server.
type TableView struct {
	ID      string        `json:"id"`
	Version int64         `json:"version"`
	Config  engine.Config `json:"config"`

	Seats []*SeatView `json:"seats"`

	Phase          engine.Phase   `json:"phase"`
	DealerSeat     engine.SeatRef `json:"dealerSeat"`
	SmallBlindSeat engine.SeatRef `json:"smallBlindSeat"`
	BigBlindSeat   engine.SeatRef `json:"bigBlindSeat"`
	ActiveSeat     engine.SeatRef `json:"activeSeat"`

	CurrentBet     int64            `json:"currentBet"`
	Pot            int64            `json:"pot"`
	SidePots       []engine.SidePot `json:"sidePots,omitempty"`
	CommunityCards []card.Card      `json:"communityCards,omitempty"`

	TurnDeadline      engine.Millis `json:"turnDeadline,omitempty"`
	ShowBluffDeadline engine.Millis `json:"showBluffDeadline,omitempty"`

	HandNumber int64                 `json:"handNumber"`
	History    []engine.HandSummary  `json:"history,omitempty"`
	Tournament *engine.Tournament    `json:"tournament,omitempty"`
	ChatLog    []engine.ChatMessage  `json:"chatLog,omitempty"`

	// Viewer-specific fields.
	YourSeat     engine.SeatRef       `json:"yourSeat"`
	YourPreAction *engine.PreAction   `json:"yourPreAction,omitempty"`
	LegalActions *engine.LegalActions `json:"legalActions,omitempty"`
}

// ProjectTable redacts a table document for one viewer. An empty viewerUID
// produces the spectator view.
func ProjectTable(t *engine.Table, version int64, viewerUID string) *TableView {
	cfg := t.Config
	cfg.PasswordHash = ""

	view := &TableView{
		ID:      t.ID,
		Version: version,
		Config:  cfg,

		Seats: make([]*SeatView, len(t.Seats)),

		Phase:          t.Phase,
		DealerSeat:     t.DealerSeat,
		SmallBlindSeat: t.SmallBlindSeat,
		BigBlindSeat:   t.BigBlindSeat,
		ActiveSeat:     t.ActiveSeat,

		CurrentBet:     t.CurrentBet,
		Pot:            t.Pot,
		SidePots:       t.SidePots,
		CommunityCards: t.CommunityCards,

		TurnDeadline:      t.TurnDeadline,
		ShowBluffDeadline: t.ShowBluffDeadline,

		HandNumber: t.HandNumber,
		History:    t.History,
		Tournament: t.Tournament,
		ChatLog:    t.ChatLog,

		YourSeat: engine.NoSeat,
	}

	for i, s := range t.Seats {
		if s == nil {
			continue
		}
		sv := &SeatView{
			Index:       s.Index,
			UID:         s.UID,
			DisplayName: s.DisplayName,
			IsBot:       s.IsBot,

			Chips:  s.Chips,
			Status: s.Status,

			HandCount:    len(s.Hand),
			HandRevealed: s.HandRevealed,
			CutCard:      s.CutCard,

			CurrentRoundBet:   s.CurrentRoundBet,
			TotalContribution: s.TotalContribution,
			LastAction:        s.LastAction,
		}
		own := viewerUID != "" && s.UID == viewerUID
		if own || s.HandRevealed {
			sv.Hand = s.Hand
		}
		if own {
			view.YourSeat = engine.SeatRef(i)
			sv.PendingSitOut = s.PendingSitOut
			sv.PreActionNotice = s.PreActionNotice
			if pa, ok := t.PreActions[i]; ok {
				view.YourPreAction = pa
			}
		}
		view.Seats[i] = sv
	}

	if view.YourSeat != engine.NoSeat && t.ActiveSeat == view.YourSeat && t.Phase.IsBetting() {
		if la, err := t.LegalActionsFor(int(view.YourSeat)); err == nil {
			view.LegalActions = &la
		}
	}
	return view
}

// Client -> server message types.
const (
	ClientTypeIntent      = "intent"
	ClientTypeChat        = "chat"
	ClientTypeSubscribe   = "subscribe"
	ClientTypeUnsubscribe = "unsubscribe"
	ClientTypePing        = "ping"
)

// Server -> client message types.
const (
	ServerTypeTable = "table"
	ServerTypeChat  = "chat"
	ServerTypeError = "error"
	ServerTypePong  = "pong"
)

// ClientEnvelope is one websocket text frame from a client.
type ClientEnvelope struct {
	Type      string         `json:"type"`
	RequestID string         `json:"requestId,omitempty"`
	TableID   string         `json:"tableId,omitempty"`
	Intent    *engine.Intent `json:"intent,omitempty"`
	Text      string         `json:"text,omitempty"`
}

// ErrorPayload mirrors the engine error taxonomy on the wire.
type ErrorPayload struct {
	Kind    engine.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// ServerEnvelope is one websocket text frame to a client. ServerSeq is
// monotonically increasing per connection.
type ServerEnvelope struct {
	Type       string `json:"type"`
	ServerSeq  uint64 `json:"serverSeq"`
	ServerTsMs int64  `json:"serverTsMs"`
	RequestID  string `json:"requestId,omitempty"`
	TableID    string `json:"tableId,omitempty"`

	View  *TableView          `json:"table,omitempty"`
	Chat  *engine.ChatMessage `json:"chat,omitempty"`
	Error *ErrorPayload       `json:"error,omitempty"`
}

// WrapTable builds a table broadcast frame.
func WrapTable(tableID string, seq uint64, view *TableView) ServerEnvelope {
	return ServerEnvelope{
		Type:       ServerTypeTable,
		ServerSeq:  seq,
		ServerTsMs: time.Now().UnixMilli(),
		TableID:    tableID,
		View:       view,
	}
}

// WrapChat builds a chat broadcast frame.
func WrapChat(tableID string, seq uint64, msg engine.ChatMessage) ServerEnvelope {
	return ServerEnvelope{
		Type:       ServerTypeChat,
		ServerSeq:  seq,
		ServerTsMs: time.Now().UnixMilli(),
		TableID:    tableID,
		Chat:       &msg,
	}
}

// WrapError builds an error reply frame. Unclassified errors surface as
// Conflict so clients always see a taxonomy kind.
func WrapError(tableID, requestID string, seq uint64, err error) ServerEnvelope {
	kind := engine.KindOf(err)
	if kind == "" {
		kind = engine.KindConflict
	}
	return ServerEnvelope{
		Type:       ServerTypeError,
		ServerSeq:  seq,
		ServerTsMs: time.Now().UnixMilli(),
		RequestID:  requestID,
		TableID:    tableID,
		Error:      &ErrorPayload{Kind: kind, Message: err.Error()},
	}
}

// WrapPong answers a client ping.
func WrapPong(requestID string, seq uint64) ServerEnvelope {
	return ServerEnvelope{
		Type:       ServerTypePong,
		ServerSeq:  seq,
		ServerTsMs: time.Now().UnixMilli(),
		RequestID:  requestID,
	}
}
