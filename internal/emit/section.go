package emit

import "slices"

// Section is an insertion-ordered map where the first write for a key wins.
type Section struct {
	keys []string
	text map[string]string
}

func NewSection() *Section {
	return &Section{text: make(map[string]string)}
}

// InsertIfAbsent stores text under key unless key is present. It reports
// whether the text was stored.
func (s *Section) InsertIfAbsent(key, text string) bool {
	if _, ok := s.text[key]; ok {
		return false
	}
	s.text[key] = text
	s.keys = append(s.keys, key)
	return true
}

// Get returns the text stored under key.
func (s *Section) Get(key string) (string, bool) {
	t, ok := s.text[key]
	return t, ok
}

// Has reports whether key was written.
func (s *Section) Has(key string) bool {
	_, ok := s.text[key]
	return ok
}

func (s *Section) Len() int { return len(s.keys) }

// Keys returns keys in insertion order.
func (s *Section) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Values returns fragments in insertion order.
func (s *Section) Values() []string {
	out := make([]string, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.text[k])
	}
	return out
}

// List is an ordered sequence that drops exact duplicates.
type List struct {
	items []string
	seen  map[string]struct{}
}

func NewList() *List {
	return &List{seen: make(map[string]struct{})}
}

// Push appends text unless identical text is already present.
func (l *List) Push(text string) bool {
	if _, ok := l.seen[text]; ok {
		return false
	}
	l.seen[text] = struct{}{}
	l.items = append(l.items, text)
	return true
}

// Reassert appends text, first removing an identical earlier entry, so
// the list keeps one copy positioned at the latest assertion.
func (l *List) Reassert(text string) {
	if _, ok := l.seen[text]; ok {
		l.items = slices.DeleteFunc(l.items, func(it string) bool { return it == text })
	}
	l.seen[text] = struct{}{}
	l.items = append(l.items, text)
}

func (l *List) Len() int { return len(l.items) }

// Items returns the entries in push order.
func (l *List) Items() []string {
	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}
