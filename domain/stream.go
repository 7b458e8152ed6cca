package domain

// StreamDescriptor is the result of resolving a channel's live session.
// When Online is false only the zero values are meaningful.
type StreamDescriptor struct {
	Online bool

	ChannelID string
	// GatewayDomain is the chat gateway hostname as reported by the
	// lookup; the session derives the dial host by lower-casing it.
	GatewayDomain string
	// GatewayPortBase is the reported port; the gateway listens for
	// WebSocket connections on GatewayPortBase+1.
	GatewayPortBase int

	Title           string
	Bitrate         string
	ChatRoom        string
	Ticket          string
	GeoCC           string
	GeoRC           string
	AcceptLanguage  string
	ServiceLanguage string

	PasswordProtected bool
}

// ChannelEmote is one entry of a channel's custom emote catalog.
// The catalog is replaced wholesale on every load and entries are
// never mutated afterwards.
type ChannelEmote struct {
	Name string
	// Tier is the subscription tier required to use the emote (1-3).
	Tier int

	PCImg        string
	PCAltImg     string
	MobileImg    string
	MobileAltImg string

	Animated    bool
	Order       string
	Blacklisted bool
}
