// Package websocket provides the live run feed for robotnav.
//
// The websocket package implements:
//   - Topic-based subscriptions over gorilla/websocket
//   - Non-blocking broadcasts of completed scenario runs
//   - Connection lifecycle management with ping/pong keepalive
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub owns all
// client registrations. Each connection has a read goroutine that only
// watches for disconnects and a write goroutine that drains its send queue.
//
// Message Protocol:
//
// Every outgoing frame is one JSON object:
//
//	{"topic": "runs", "event": "run_completed", "data": {...RunEvent...}}
//
// Clients choose a topic with the ?topic= query parameter; the API defaults
// to "runs". Incoming frames are ignored.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, websocket.TopicRuns)
//	})
//
//	hub.BroadcastRun(run)
//
// A client whose send queue is full is disconnected rather than slowing the
// hub down.
package websocket
