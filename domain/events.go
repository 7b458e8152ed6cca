package domain

// UserType classifies the sender of a chat message.
type UserType string

const (
	UserTypeNormal UserType = "normal"
	UserTypeStaff  UserType = "staff"
	UserTypePolice UserType = "police"
)

// UserTypeFromCode maps the wire user-type code to a UserType.
// 1 is staff, 2 is police, everything else (0, 3, unknown) is normal.
func UserTypeFromCode(code int) UserType {
	switch code {
	case 1:
		return UserTypeStaff
	case 2:
		return UserTypePolice
	default:
		return UserTypeNormal
	}
}

// SegmentKind distinguishes the parts of a tokenized chat message.
type SegmentKind string

const (
	SegmentText  SegmentKind = "text"
	SegmentEmote SegmentKind = "emote"
)

// MessageSegment is one text or emote run of a chat message body.
// For emote segments Body is the emote name without delimiters.
type MessageSegment struct {
	Kind SegmentKind
	Body string
}

// ChatEvent is a single chat message, published once per inbound
// CHAT or CHAT_OGQ frame and immutable afterwards.
type ChatEvent struct {
	Content    string
	Segments   []MessageSegment
	UsedEmotes map[string]ChannelEmote

	ChannelID string
	UserID    string
	Nickname  string

	NormalColor        string
	Language           string
	UserType           UserType
	SubscriptionMonths int

	IsStreamer bool
	IsFan      bool
	IsTopFan   bool
	IsManager  bool
	IsFemale   bool

	Color         string
	ColorDarkmode string

	// Raw bit-packed permission fields, decoded fresh from each frame.
	Flag1 uint32
	Flag2 uint32

	// StickerURL is set only for OGQ sticker chats.
	StickerURL string
}

// DonationKind distinguishes balloon donation variants.
type DonationKind string

const (
	DonationNormal DonationKind = "normal"
	DonationAd     DonationKind = "ad"
)

// DonationEvent is a balloon donation.
type DonationEvent struct {
	Kind     DonationKind
	UserID   string
	Nickname string
	Count    int
	// FanClubOrder is the join order when the donation also enrolled
	// the donor into the fan club, zero otherwise.
	FanClubOrder int
	// IsStation marks station-funded ad balloons.
	IsStation bool
	ImageName string
	TTSType   string
}

// ModerationKind distinguishes moderation actions.
type ModerationKind string

const (
	ModerationTimeout ModerationKind = "timeout"
	ModerationKick    ModerationKind = "kick"
)

// ModerationEvent is a timeout or kick applied to a viewer.
type ModerationEvent struct {
	Kind            ModerationKind
	UserID          string
	Nickname        string
	DurationSeconds int
	ByManagerID     string
}
