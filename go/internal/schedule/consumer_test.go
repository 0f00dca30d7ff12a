package schedule

import "testing"

func TestConsumerFilterSubject(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "game.events", want: "game.events.GameFinished"},
		{prefix: "staging.game.events", want: "staging.game.events.GameFinished"},
	}

	for _, tt := range tests {
		c := NewConsumer(nil, nil, nil, "GAME_EVENTS", tt.prefix)
		if got := c.filterSubject(); got != tt.want {
			t.Errorf("filterSubject() with prefix %q = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}
