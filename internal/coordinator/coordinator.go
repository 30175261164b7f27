package coordinator

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog/log"

	"typerace/internal/race"
)

const (
	// progressBroadcastLimit bounds the leaderboard sent on progress
	// updates; joins and finishes always broadcast the full standings.
	progressBroadcastLimit = 10

	// defaultPlayerName replaces an empty display name at join time.
	defaultPlayerName = "anonymous"

	// eventQueueSize buffers inbound events between the connection read
	// loops and the single consumer.
	eventQueueSize = 256
)

// Client is one connected session as the coordinator sees it: an id and a
// way to send a message to that session only.
type Client interface {
	SessionID() string
	Send(msg OutboundMessage) error
}

// RoomHub is the transport-side fanout the coordinator drives. Join/Leave
// move a client in and out of a room's broadcast pool; Broadcast is
// best-effort delivery to every client in the pool.
type RoomHub interface {
	Join(roomID string, c Client)
	Leave(roomID string, c Client)
	Broadcast(roomID string, msg OutboundMessage)
}

// event is one unit of work for the coordinator loop.
type event struct {
	client  Client
	kind    EventType
	payload any
}

// Coordinator mediates every player-originated event against the room store
// and decides when and to whom leaderboards are emitted.
//
// All events funnel through one channel drained by a single goroutine
// (Run), so each handler's mutate-rank-emit sequence is atomic with respect
// to every other event and no handler needs a lock of its own. Events from
// the same session are applied in the order its read loop delivers them.
type Coordinator struct {
	store *race.Store
	hub   RoomHub

	events chan event
	quit   chan struct{}

	// sessions maps a session id to the room it joined. Only the Run
	// goroutine touches it.
	sessions map[string]string
}

// New creates a coordinator over the given store and hub. Call Run to start
// processing events.
func New(store *race.Store, hub RoomHub) *Coordinator {
	return &Coordinator{
		store:    store,
		hub:      hub,
		events:   make(chan event, eventQueueSize),
		quit:     make(chan struct{}),
		sessions: make(map[string]string),
	}
}

// Run drains the event queue until ctx is cancelled. It is the only
// goroutine that mutates player state or session membership.
func (c *Coordinator) Run(ctx context.Context) {
	log.Info().Msg("session coordinator started")
	defer close(c.quit)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session coordinator shutting down")
			return
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

// HandleMessage decodes one raw frame from a session and enqueues it.
// Malformed frames are dropped here, before they ever reach shared state.
// The enqueue blocks rather than drops, so a session's events are processed
// in delivery order and none are lost under load.
func (c *Coordinator) HandleMessage(client Client, raw []byte) {
	kind, payload, err := parseClientEvent(raw)
	if err != nil {
		log.Debug().
			Err(err).
			Str("session_id", client.SessionID()).
			Msg("dropping malformed client event")
		return
	}
	c.enqueue(event{client: client, kind: kind, payload: payload})
}

// HandleDisconnect enqueues a synthesized disconnect for a session whose
// connection has gone away.
func (c *Coordinator) HandleDisconnect(client Client) {
	c.enqueue(event{client: client, kind: eventTypeDisconnect})
}

func (c *Coordinator) enqueue(ev event) {
	select {
	case c.events <- ev:
	case <-c.quit:
		// Coordinator stopped; the connection is being torn down anyway.
	}
}

func (c *Coordinator) handle(ev event) {
	switch ev.kind {
	case EventTypeJoin:
		c.handleJoin(ev.client, ev.payload.(JoinPayload))
	case EventTypeProgress:
		c.handleProgress(ev.client, ev.payload.(ProgressPayload))
	case EventTypeFinish:
		c.handleFinish(ev.client, ev.payload.(FinishPayload))
	case eventTypeDisconnect:
		c.handleDisconnect(ev.client)
	}
}

func (c *Coordinator) handleJoin(client Client, p JoinPayload) {
	sessionID := client.SessionID()
	name := p.Name
	if name == "" {
		name = defaultPlayerName
	}

	// Register in the target room before touching any existing membership:
	// a failed join must leave every room exactly as it was.
	if err := c.store.AddPlayer(p.RoomID, sessionID, name); err != nil {
		if errors.Is(err, race.ErrRoomNotFound) {
			if sendErr := client.Send(errorMessage("room not found")); sendErr != nil {
				log.Debug().Err(sendErr).Str("session_id", sessionID).Msg("failed to send join error")
			}
			return
		}
		log.Error().Err(err).Str("room_id", p.RoomID).Str("session_id", sessionID).Msg("join failed")
		return
	}

	// A session belongs to at most one room; joining another room moves it.
	if prev, ok := c.sessions[sessionID]; ok && prev != p.RoomID {
		c.store.RemovePlayer(prev, sessionID)
		c.hub.Leave(prev, client)
		delete(c.sessions, sessionID)
		c.broadcastLeaderboard(prev, 0)
	}

	c.sessions[sessionID] = p.RoomID
	c.hub.Join(p.RoomID, client)

	snap, ok := c.store.GetRoom(p.RoomID)
	if ok {
		if err := client.Send(OutboundMessage{
			Type:    OutboundTypeRoomInfo,
			Payload: RoomInfoPayload{RoomID: snap.ID, Text: snap.Text},
		}); err != nil {
			log.Debug().Err(err).Str("session_id", sessionID).Msg("failed to send room info")
		}
	}

	log.Info().
		Str("room_id", p.RoomID).
		Str("session_id", sessionID).
		Str("name", name).
		Msg("player joined")

	c.broadcastLeaderboard(p.RoomID, 0)
}

func (c *Coordinator) handleProgress(client Client, p ProgressPayload) {
	if !c.store.UpdateProgress(p.RoomID, client.SessionID(), p.ProgressPct) {
		// Stale or duplicate message for a room/session we don't know.
		return
	}
	c.broadcastLeaderboard(p.RoomID, progressBroadcastLimit)
}

func (c *Coordinator) handleFinish(client Client, p FinishPayload) {
	wpm := race.WPM(p.CorrectChars, p.TimeSeconds)

	seconds := p.TimeSeconds
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}

	if !c.store.MarkFinished(p.RoomID, client.SessionID(), seconds, wpm) {
		return
	}

	log.Info().
		Str("room_id", p.RoomID).
		Str("session_id", client.SessionID()).
		Int("wpm", wpm).
		Float64("time_seconds", seconds).
		Msg("player finished")

	c.broadcastLeaderboard(p.RoomID, 0)
}

func (c *Coordinator) handleDisconnect(client Client) {
	sessionID := client.SessionID()
	roomID, ok := c.sessions[sessionID]
	if !ok {
		return
	}

	delete(c.sessions, sessionID)
	c.store.RemovePlayer(roomID, sessionID)
	c.hub.Leave(roomID, client)

	log.Info().
		Str("room_id", roomID).
		Str("session_id", sessionID).
		Msg("player disconnected")

	c.broadcastLeaderboard(roomID, 0)
}

// broadcastLeaderboard ranks the room's current players and emits the
// standings to everyone in the room. A positive topN truncates the list to
// its highest-ranked entries.
func (c *Coordinator) broadcastLeaderboard(roomID string, topN int) {
	snap, ok := c.store.GetRoom(roomID)
	if !ok {
		return
	}

	ranked := race.Rank(snap.Players)
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	c.hub.Broadcast(roomID, OutboundMessage{
		Type:    OutboundTypeLeaderboard,
		Payload: LeaderboardPayload{Leaderboard: ranked, Text: snap.Text},
	})
}
