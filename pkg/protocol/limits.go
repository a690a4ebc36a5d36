package protocol

// Size limits for inbound messages. These complement the WebSocket read
// limit set on the connection; Decode enforces them again so the package
// is safe to use against any transport.
const (
	// MaxMessageSize is the maximum size of one envelope in bytes.
	MaxMessageSize = 64 * 1024

	// MaxNameLength is the maximum actor name length in runes.
	MaxNameLength = 255
)
