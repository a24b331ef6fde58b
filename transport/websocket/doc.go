// Package websocket provides the WebSocket transport for Block Rush.
//
// The websocket package implements:
//   - Session-aware connections attached via /ws?session=<id>
//   - Fan-out of every state change, including scheduler ticks and countdown
//     transitions that happen without any client request
//   - Inbound move commands routed to an InputHandler
//
// Architecture:
//
// A central Hub owns all connections. Registration, unregistration and
// fan-out run on the Hub's Run goroutine; each client has a read pump and a
// write pump. Clients that cannot keep up are dropped rather than blocking
// the game loop.
//
// Message Protocol:
//
// Outgoing messages are JSON objects:
//
//	{"session_id":"ab12","event":"state_update","game_state":{...}}
//	{"session_id":"ab12","event":"event","data":{"type":"level_up","level":3,...}}
//	{"session_id":"ab12","event":"error","data":"invalid direction: ..."}
//
// Incoming messages:
//
//	{"action":"move","direction":"up"}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	gameService.SetBroadcaster(hub)
//	hub.SetInputHandler(func(ctx context.Context, id, dir string) error {
//		_, err := gameService.Move(ctx, id, dir, false)
//		return err
//	})
package websocket
