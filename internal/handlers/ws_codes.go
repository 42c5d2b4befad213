// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the debate handler.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	SlowConsumerError   = 3001 // Outbound queue overflowed; the client is not reading.
)
