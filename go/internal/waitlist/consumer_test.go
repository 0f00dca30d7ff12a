package waitlist

import "testing"

func TestConsumerFilterSubject(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "game.events", want: "game.events.SlotFreed"},
		{prefix: "staging.game.events", want: "staging.game.events.SlotFreed"},
	}

	for _, tt := range tests {
		c := NewConsumer(nil, nil, "GAME_EVENTS", tt.prefix)
		if got := c.filterSubject(); got != tt.want {
			t.Errorf("filterSubject() with prefix %q = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}
