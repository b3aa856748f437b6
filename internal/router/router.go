package router

import (
	"log"
	"sync"
)

// Topic is one logical event stream a collaborator can subscribe to. Topics
// map one-to-one onto the store's appliers plus the transient notify-only
// signals.
type Topic string

const (
	TopicMessage        Topic = "message"
	TopicNudge          Topic = "nudge_event"
	TopicPlayerUpdate   Topic = "player_update"
	TopicNoteUpdate     Topic = "note_update"
	TopicGameUpdate     Topic = "game_update"
	TopicDrawLine       Topic = "draw_line"
	TopicClearCanvas    Topic = "clear_canvas"
	TopicPlaylistUpdate Topic = "playlist_update"
	TopicFullSync       Topic = "full_sync"
	TopicThemeChange    Topic = "theme_change"
	TopicTypingStatus   Topic = "typing_status"
)

type Callback func(payload any)

// Router fans events out to interested subscribers. It knows nothing about
// transports or state; it only demultiplexes by topic.
type Router struct {
	mu   sync.Mutex
	seq  int
	subs map[Topic]map[int]Callback
}

func New() *Router {
	return &Router{subs: make(map[Topic]map[int]Callback)}
}

// Subscribe registers cb for topic and returns a function that removes it.
func (r *Router) Subscribe(topic Topic, cb Callback) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subs[topic] == nil {
		r.subs[topic] = make(map[int]Callback)
	}
	r.seq++
	id := r.seq
	r.subs[topic][id] = cb
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs[topic], id)
	}
}

// Notify invokes every callback currently subscribed to topic. A panicking
// callback is isolated so its siblings still run.
func (r *Router) Notify(topic Topic, payload any) {
	r.mu.Lock()
	callbacks := make([]Callback, 0, len(r.subs[topic]))
	for _, cb := range r.subs[topic] {
		callbacks = append(callbacks, cb)
	}
	r.mu.Unlock()

	for _, cb := range callbacks {
		invoke(topic, cb, payload)
	}
}

func invoke(topic Topic, cb Callback, payload any) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("router: subscriber panic on %s: %v", topic, rec)
		}
	}()
	cb(payload)
}
