package chat

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/soopkit/soopchat/domain"
	"github.com/soopkit/soopchat/internal/wire"
)

// wrongPasswordSentinel is the literal error body the gateway sends
// on a JOIN with a bad room password.
const wrongPasswordSentinel = "비밀번호가 틀렸습니다."

// handleFrame decodes one inbound buffer and dispatches it by command
// id. The gateway has many opaque commands; unknown ids are logged at
// debug level and never abort the session.
func (c *Client) handleFrame(data []byte) {
	frame, err := wire.Decode(data)
	if err != nil {
		c.log.Warn("dropping malformed frame", zap.Error(err))
		return
	}

	switch frame.Command {
	case wire.CmdLogin:
		c.onLogin(frame)
	case wire.CmdJoin:
		c.onJoin(frame)
	case wire.CmdJoinPartUser:
		c.onJoinPartUser(frame)
	case wire.CmdUserTimeout:
		c.onUserTimeout(frame)
	case wire.CmdChat:
		c.onChat(frame)
	case wire.CmdChatOGQ:
		c.onChatOGQ(frame)
	case wire.CmdOGQGift:
		c.onOGQGift(frame)
	case wire.CmdSetUserFlag:
		c.onSetUserFlag(frame)
	case wire.CmdInOutManager:
		c.onInOutManager(frame)
	case wire.CmdIce2:
		c.onFreezeMode(frame)
	case wire.CmdSlowMode:
		c.onSlowMode(frame)
	case wire.CmdBalloon:
		c.onBalloon(frame)
	case wire.CmdBalloonAd:
		c.onBalloonAd(frame)
	case wire.CmdBalloonAdStation:
		c.onBalloonAdStation(frame)
	case wire.CmdPoll:
		c.onPoll(frame)
	case wire.CmdBlockWordsList:
		c.onBlockWordsList(frame)
	case wire.CmdStreamClosed:
		c.onStreamClosed(frame)
	case wire.CmdSystemNotice:
		c.onSystemNotice(frame)
	case wire.CmdChannelNotice:
		c.onChannelNotice(frame)
	case wire.CmdSubscriptionNew:
		c.onSubscriptionNew(frame)
	case wire.CmdSubscription:
		c.onSubscription(frame)
	case wire.CmdSubscriptionGift:
		c.onSubscriptionGift(frame)
	case wire.CmdIce1, wire.CmdSubNickname, wire.CmdMission, wire.CmdPing:
		// Known but carry nothing the client acts on.
	default:
		c.log.Debug("unhandled command",
			zap.Int("command", frame.Command),
			zap.Strings("fields", frame.Fields))
	}
}

// onLogin answers the gateway's login acknowledgement with the room
// join frame. State does not change until the JOIN response arrives.
func (c *Client) onLogin(_ wire.Frame) {
	c.log.Info("logged in", zap.String("channel", c.ChannelID()))
	c.sendJoin()
}

func (c *Client) onJoin(f wire.Frame) {
	if f.Field(0) == wrongPasswordSentinel {
		c.log.Warn("room join rejected: wrong password")
		c.Disconnect()
		return
	}
	channelID := f.Field(1)

	c.mu.Lock()
	c.state = StateJoined
	c.mu.Unlock()

	c.log.Info("joined channel", zap.String("channel", channelID))
	c.joinSubs.emit(channelID)
}

func (c *Client) onJoinPartUser(f wire.Frame) {
	joinType := f.Field(0)
	userID := f.Field(1)
	nickname := f.Field(2)
	quitType := f.Field(3)

	if joinType == "1" {
		c.log.Debug("viewer joined", zap.String("user", userID), zap.String("nickname", nickname))
		return
	}
	if quitType == "1" {
		c.log.Debug("viewer left", zap.String("user", userID), zap.String("nickname", nickname))
		return
	}
	// A part without an ordinary quit marker is a kick.
	c.log.Debug("viewer kicked", zap.String("user", userID), zap.String("nickname", nickname))
	c.blockSubs.emit(domain.ModerationEvent{
		Kind:        domain.ModerationKick,
		UserID:      userID,
		Nickname:    nickname,
		ByManagerID: "manager",
	})
}

func (c *Client) onUserTimeout(f wire.Frame) {
	userID := f.Field(0)
	duration := f.IntField(2)
	byManagerID := f.Field(4)
	nickname := f.Field(7)

	c.log.Debug("viewer timed out",
		zap.String("user", userID),
		zap.String("nickname", nickname),
		zap.Int("seconds", duration),
		zap.String("by", byManagerID))
	c.blockSubs.emit(domain.ModerationEvent{
		Kind:            domain.ModerationTimeout,
		UserID:          userID,
		Nickname:        nickname,
		DurationSeconds: duration,
		ByManagerID:     byManagerID,
	})
}

// userRoles are the derived booleans shared by the chat decoders.
type userRoles struct {
	streamer   bool
	fan        bool
	privileged bool
	topFan     bool
	manager    bool
	female     bool
}

func decodeRoles(flag1 uint32) userRoles {
	return userRoles{
		streamer:   wire.IsBitSet(wire.BitHost, flag1),
		fan:        wire.IsBitSet(wire.BitFanclub, flag1),
		privileged: wire.IsBitSet(wire.BitFollower, flag1),
		topFan:     wire.IsBitSet(wire.BitTopFan, flag1),
		manager:    wire.IsBitSet(wire.BitManagerB, flag1),
		female:     wire.IsBitSet(wire.BitFemale, flag1),
	}
}

func (c *Client) onChat(f wire.Frame) {
	content := f.Field(0)
	userID := f.Field(1)
	normalColor := f.Field(2)
	userType := domain.UserTypeFromCode(f.IntField(3))
	language := f.Field(4)
	nickname := f.Field(5)
	flag1, flag2 := wire.ParseFlagPair(f.Field(6))
	color := f.Field(8)
	colorDarkmode := f.Field(9)
	months := f.IntField(10)

	roles := decodeRoles(flag1)
	segments, used := tokenizeContent(content, c.emoteTable(), roles.privileged)

	c.log.Debug("chat",
		zap.String("user", userID),
		zap.String("nickname", nickname),
		zap.String("content", content),
		zap.String("userType", string(userType)),
		zap.Strings("roles", wire.SetRoleFlags(flag1)),
		zap.Strings("tiers", wire.SetTierFlags(flag2)))

	c.chatSubs.emit(domain.ChatEvent{
		Content:            content,
		Segments:           segments,
		UsedEmotes:         used,
		ChannelID:          c.ChannelID(),
		UserID:             userID,
		Nickname:           nickname,
		NormalColor:        normalColor,
		Language:           language,
		UserType:           userType,
		SubscriptionMonths: months,
		IsStreamer:         roles.streamer,
		IsFan:              roles.fan,
		IsTopFan:           roles.topFan,
		IsManager:          roles.manager,
		IsFemale:           roles.female,
		Color:              color,
		ColorDarkmode:      colorDarkmode,
		Flag1:              flag1,
		Flag2:              flag2,
	})
}

func (c *Client) onChatOGQ(f wire.Frame) {
	content := f.Field(1)
	stickerSetID := f.Field(2)
	stickerID := f.Field(3)
	stickerVer := f.Field(4)
	userID := f.Field(5)
	nickname := f.Field(6)
	flag1, flag2 := wire.ParseFlagPair(f.Field(7))
	language := f.Field(9)
	userType := domain.UserTypeFromCode(f.IntField(10))
	stickerFiletype := f.Field(11)
	color := f.Field(13)
	colorDarkmode := f.Field(14)
	months := f.IntField(15)

	stickerURL := fmt.Sprintf("%s/%s_40.%s?ver=%s", stickerSetID, stickerID, stickerFiletype, stickerVer)
	roles := decodeRoles(flag1)
	segments, used := tokenizeContent(content, c.emoteTable(), roles.privileged)

	c.log.Debug("sticker chat",
		zap.String("user", userID),
		zap.String("nickname", nickname),
		zap.String("content", content),
		zap.String("sticker", stickerURL))

	c.chatSubs.emit(domain.ChatEvent{
		Content:            content,
		Segments:           segments,
		UsedEmotes:         used,
		ChannelID:          c.ChannelID(),
		UserID:             userID,
		Nickname:           nickname,
		Language:           language,
		UserType:           userType,
		SubscriptionMonths: months,
		IsStreamer:         roles.streamer,
		IsFan:              roles.fan,
		IsTopFan:           roles.topFan,
		IsManager:          roles.manager,
		IsFemale:           roles.female,
		Color:              color,
		ColorDarkmode:      colorDarkmode,
		Flag1:              flag1,
		Flag2:              flag2,
		StickerURL:         stickerURL,
	})
}

func (c *Client) onOGQGift(f wire.Frame) {
	c.log.Debug("sticker gift",
		zap.String("from", f.Field(2)),
		zap.String("fromUser", f.Field(1)),
		zap.String("to", f.Field(4)),
		zap.String("toUser", f.Field(3)),
		zap.String("sticker", f.Field(5)))
}

func (c *Client) onSetUserFlag(f wire.Frame) {
	beforeRole, beforeTier := wire.ParseFlagPair(f.Field(0))
	userID := f.Field(1)
	nickname := f.Field(2)
	afterRole, afterTier := wire.ParseFlagPair(f.Field(5))

	changes := wire.DiffFlags(beforeRole, beforeTier, afterRole, afterTier)
	if len(changes) == 0 {
		return
	}
	described := make([]string, len(changes))
	for i, ch := range changes {
		described[i] = fmt.Sprintf("%s -> %v", ch.Name, ch.After)
	}
	c.log.Debug("user flags changed",
		zap.String("user", userID),
		zap.String("nickname", nickname),
		zap.Strings("changes", described))
}

func (c *Client) onInOutManager(f wire.Frame) {
	userID := f.Field(0)
	flag1, _ := wire.ParseFlagPair(f.Field(1))
	nickname := f.Field(3)

	action := "dismissed"
	if wire.IsBitSet(wire.BitManagerB, flag1) {
		action = "appointed"
	}
	c.log.Info("manager "+action, zap.String("user", userID), zap.String("nickname", nickname))
}

func (c *Client) onFreezeMode(f wire.Frame) {
	if f.Field(0) != "1" {
		c.log.Info("freeze mode disabled")
		return
	}
	flags, _ := wire.ParseFlagPair(f.Field(2))
	c.log.Info("freeze mode enabled",
		zap.Strings("eligible", wire.FreezeLabels(flags)),
		zap.Int("minBalloons", f.IntField(3)),
		zap.Int("minSubscriptionMonths", f.IntField(4)))
}

func (c *Client) onSlowMode(f wire.Frame) {
	seconds := f.IntField(1)
	if seconds == 0 {
		c.log.Info("slow mode disabled")
		return
	}
	c.log.Info("slow mode enabled", zap.Int("seconds", seconds))
}

func (c *Client) onBalloon(f wire.Frame) {
	userID := f.Field(1)
	nickname := f.Field(2)
	count := f.IntField(3)
	fanClubOrder := f.IntField(4)

	c.log.Debug("balloon",
		zap.String("user", userID),
		zap.String("nickname", nickname),
		zap.Int("count", count),
		zap.Int("fanClubOrder", fanClubOrder))
	c.balloonSubs.emit(domain.DonationEvent{
		Kind:         domain.DonationNormal,
		UserID:       userID,
		Nickname:     nickname,
		Count:        count,
		FanClubOrder: fanClubOrder,
		ImageName:    f.Field(7),
		TTSType:      f.Field(10),
	})
}

func (c *Client) onBalloonAd(f wire.Frame) {
	userID := f.Field(2)
	nickname := f.Field(3)
	count := f.IntField(9)
	fanClubOrder := f.IntField(10)

	c.log.Debug("ad balloon",
		zap.String("user", userID),
		zap.String("nickname", nickname),
		zap.Int("count", count))
	c.balloonSubs.emit(domain.DonationEvent{
		Kind:         domain.DonationAd,
		UserID:       userID,
		Nickname:     nickname,
		Count:        count,
		FanClubOrder: fanClubOrder,
		ImageName:    f.Field(8),
		TTSType:      f.Field(14),
	})
}

func (c *Client) onBalloonAdStation(f wire.Frame) {
	userID := f.Field(1)
	nickname := f.Field(2)
	count := f.IntField(3)

	c.log.Debug("station ad balloon",
		zap.String("user", userID),
		zap.String("nickname", nickname),
		zap.Int("count", count))
	c.balloonSubs.emit(domain.DonationEvent{
		Kind:      domain.DonationAd,
		UserID:    userID,
		Nickname:  nickname,
		Count:     count,
		IsStation: true,
		ImageName: f.Field(4),
	})
}

func (c *Client) onPoll(f wire.Frame) {
	pollID := f.Field(2)
	switch f.Field(0) {
	case "1":
		c.log.Info("poll started", zap.String("poll", pollID))
	case "4":
		c.log.Info("poll ended", zap.String("poll", pollID))
	}
}

func (c *Client) onBlockWordsList(f wire.Frame) {
	replacement := f.Field(0)
	raw := f.Field(1)
	if raw == "" {
		return
	}
	words := strings.Split(raw, wire.ListSep)
	c.log.Debug("banned word list updated",
		zap.Strings("words", words),
		zap.String("replacement", replacement))
}

func (c *Client) onStreamClosed(_ wire.Frame) {
	c.log.Warn("stream closed", zap.String("channel", c.ChannelID()))
	c.Disconnect()
}

func (c *Client) onSystemNotice(f wire.Frame) {
	c.log.Info("system notice", zap.String("notice", f.Field(0)))
}

func (c *Client) onChannelNotice(f wire.Frame) {
	c.log.Info("channel notice", zap.String("notice", f.Field(3)))
}

func (c *Client) onSubscriptionNew(f wire.Frame) {
	c.log.Debug("new subscription",
		zap.String("user", f.Field(2)),
		zap.String("nickname", f.Field(3)),
		zap.String("duration", f.Field(4)))
}

func (c *Client) onSubscription(f wire.Frame) {
	c.log.Debug("subscription renewed",
		zap.String("user", f.Field(1)),
		zap.String("nickname", f.Field(2)),
		zap.String("months", f.Field(3)))
}

func (c *Client) onSubscriptionGift(f wire.Frame) {
	c.log.Debug("subscription gifted",
		zap.String("user", f.Field(3)),
		zap.String("nickname", f.Field(4)),
		zap.String("fromUser", f.Field(5)),
		zap.String("fromNickname", f.Field(6)),
		zap.String("months", f.Field(7)))
}

// emoteTable returns the current lookup table. The table is replaced
// wholesale and never mutated per entry, so reading it without a copy
// is safe.
func (c *Client) emoteTable() map[string]domain.ChannelEmote {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emotes
}
