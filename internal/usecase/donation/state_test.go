package donation

import (
	"testing"
	"time"
)

func TestPledgeCutoff(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "late in the UTC day",
			now:  time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC),
			want: time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "offset timezone is normalized to UTC",
			now:  time.Date(2024, 3, 1, 20, 0, 0, 0, time.FixedZone("EST", -5*3600)),
			want: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "month boundary",
			now:  time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PledgeCutoff(tt.now); !got.Equal(tt.want) {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAction_String(t *testing.T) {
	if ActionPostPledged.String() != "post_pledged" {
		t.Errorf("unexpected %q", ActionPostPledged.String())
	}
	if Action(42).String() != "action(42)" {
		t.Errorf("unexpected %q", Action(42).String())
	}
}
