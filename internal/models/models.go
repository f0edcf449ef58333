package models

// Tag is a classification label attached to a stored message.
type Tag string

const (
	TagGeneral  Tag = "general"
	TagQuestion Tag = "question"
	TagOpinion  Tag = "opinion"
	TagOpenQ    Tag = "openq"
	TagHumor    Tag = "humor"
	TagAnswer   Tag = "answer"
	TagNotable  Tag = "notable"
)

// AllTags lists every known tag in display order.
var AllTags = []Tag{TagGeneral, TagQuestion, TagOpinion, TagOpenQ, TagHumor, TagAnswer, TagNotable}

// Valid reports whether t is one of the known tags.
func (t Tag) Valid() bool {
	for _, known := range AllTags {
		if t == known {
			return true
		}
	}
	return false
}

// Message is one persisted corpus row. A chat message matching several tags
// is stored once per tag, so rows may share author and content.
type Message struct {
	ID      int64  `json:"id"`
	Author  string `json:"author"`
	Content string `json:"content"`
	Tag     Tag    `json:"tag"`
}

// Filter selects corpus rows. Empty fields match everything; Tags matches any
// of the listed tags.
type Filter struct {
	Content string
	Tags    []Tag
}

// Match reports whether msg satisfies the filter.
func (f Filter) Match(msg Message) bool {
	if f.Content != "" && msg.Content != f.Content {
		return false
	}
	if len(f.Tags) == 0 {
		return true
	}
	for _, t := range f.Tags {
		if msg.Tag == t {
			return true
		}
	}
	return false
}

// Stats summarizes the corpus for the admin stats command.
type Stats struct {
	BaseProbability float64
	Weights         map[Tag]float64
	TotalMessages   int
	PerTag          map[Tag]int
}
