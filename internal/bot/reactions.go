package bot

import "strings"

// maxTracked bounds the number of messages whose reactions are counted.
const maxTracked = 10000

type messageKey struct {
	chatID    int64
	messageID int
}

// reactionTracker counts the distinct users who reacted to each message.
// The Bot API version spoken here has no reaction updates, so a reply made of
// a single reaction token ("+1", "👍" and the like) stands in for one.
type reactionTracker struct {
	tokens    map[string]struct{}
	threshold int
	reactors  map[messageKey]map[int64]struct{}
}

func newReactionTracker(tokens []string, threshold int) *reactionTracker {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[strings.TrimSpace(t)] = struct{}{}
	}
	return &reactionTracker{tokens: set, threshold: threshold, reactors: make(map[messageKey]map[int64]struct{})}
}

func (r *reactionTracker) isReaction(text string) bool {
	_, ok := r.tokens[strings.TrimSpace(text)]
	return ok
}

// add records a reaction by userID and reports whether the message just
// reached the threshold. Repeat reactions by the same user are ignored, so it
// fires once per message.
func (r *reactionTracker) add(chatID int64, messageID int, userID int64) bool {
	if len(r.reactors) >= maxTracked {
		r.reactors = make(map[messageKey]map[int64]struct{})
	}
	key := messageKey{chatID: chatID, messageID: messageID}
	users, ok := r.reactors[key]
	if !ok {
		users = make(map[int64]struct{})
		r.reactors[key] = users
	}
	if _, seen := users[userID]; seen {
		return false
	}
	users[userID] = struct{}{}
	return len(users) == r.threshold
}
