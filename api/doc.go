// Package api provides HTTP REST API handlers for Block Rush.
//
// Endpoints:
//
// Session Management:
//   - POST   /api/sessions               - Create a session ({"config_id":"tiny"}); its game loop starts immediately
//   - GET    /api/sessions               - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/{id}          - Session info with the current state
//   - DELETE /api/sessions/{id}          - Stop the loop and delete the session
//
// Game Operations:
//   - GET  /api/sessions/{id}/state      - Current game state
//   - POST /api/sessions/{id}/move       - {"direction":"up","reset":false}
//   - POST /api/sessions/{id}/bulk-move  - {"moves":["up","right"],"reset":false}
//   - POST /api/sessions/{id}/tick       - Force one block scheduler tick
//   - POST /api/sessions/{id}/reset      - Regenerate the current level
//   - GET  /api/sessions/{id}/cell?x=&y= - Describe one cell
//
// Configuration:
//   - GET  /api/configs                  - List presets
//   - GET  /api/configs/{name}           - Load one preset
//   - POST /api/configs                  - Validate and save a preset
//
// Other:
//   - GET /ws?session={id}               - WebSocket stream of state updates
//   - GET /health                        - Liveness probe
//
// Error Handling:
//
// Errors are returned as {"error": "message"}. Unknown sessions and presets
// map to 404; invalid directions, empty move lists, out-of-bounds cells and
// invalid presets map to 400; anything else is a 500.
//
// Move responses carry the raw outcome (moved, pushed, reject reason), the
// cell a rejected move tried to enter, the possible moves and a 3x3 local
// view around the player. Bulk responses add a per-step trace and stop at
// the first rejected move.
package api
