package chat

import (
	"strings"

	"github.com/soopkit/soopchat/domain"
)

// tokenizeContent splits a chat message body into alternating text and
// emote segments. Emotes are written as /name/ and only resolve when
// the name exists in the channel's emote table; unmatched slash pairs
// stay ordinary text and are re-examined from just after the opening
// delimiter, so nested candidates are still found. Non-privileged
// senders cannot use channel emotes, so their content is returned as a
// single text segment.
func tokenizeContent(content string, emotes map[string]domain.ChannelEmote, privileged bool) ([]domain.MessageSegment, map[string]domain.ChannelEmote) {
	used := make(map[string]domain.ChannelEmote)
	if !privileged {
		return []domain.MessageSegment{{Kind: domain.SegmentText, Body: content}}, used
	}

	var segments []domain.MessageSegment
	pos := 0  // scan position
	last := 0 // start of unflushed text
	for {
		open := strings.IndexByte(content[pos:], '/')
		if open < 0 {
			break
		}
		open += pos
		end := strings.IndexByte(content[open+1:], '/')
		if end < 0 {
			break
		}
		end += open + 1
		name := content[open+1 : end]

		emote, ok := emotes[name]
		if !ok || name == "" {
			pos = open + 1
			continue
		}

		if last < open {
			segments = append(segments, domain.MessageSegment{Kind: domain.SegmentText, Body: content[last:open]})
		}
		if _, seen := used[name]; !seen {
			used[name] = emote
		}
		segments = append(segments, domain.MessageSegment{Kind: domain.SegmentEmote, Body: name})
		pos = end + 1
		last = pos
	}
	if last < len(content) {
		segments = append(segments, domain.MessageSegment{Kind: domain.SegmentText, Body: content[last:]})
	}
	return segments, used
}
