package inspector

import (
	"testing"

	"github.com/pthm-cable/ecosim/components"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag     string
		widget  Widget
		options map[string]string
	}{
		{"", WidgetAuto, map[string]string{}},
		{"bar,max:200", WidgetBar, map[string]string{"max": "200"}},
		{"label,fmt:%.1fs", WidgetLabel, map[string]string{"fmt": "%.1fs"}},
		{"skip", WidgetSkip, map[string]string{}},
		{"unknown", WidgetAuto, map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			w, opts := ParseTag(tt.tag)
			if w != tt.widget {
				t.Errorf("widget = %v, want %v", w, tt.widget)
			}
			if len(opts) != len(tt.options) {
				t.Fatalf("options = %v, want %v", opts, tt.options)
			}
			for k, v := range tt.options {
				if opts[k] != v {
					t.Errorf("option %s = %q, want %q", k, opts[k], v)
				}
			}
		})
	}
}

func TestExtractFieldsAgent(t *testing.T) {
	agent := &components.Agent{State: components.StateEating, Timer: 1.25, PendingGain: 15}
	fields := ExtractFields(agent)

	// Target is tagged skip.
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	want := []string{"State", "Timer", "PendingGain"}
	if len(names) != len(want) {
		t.Fatalf("fields = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("field %d = %s, want %s", i, names[i], want[i])
		}
	}

	if got := fields[0].Text(); got != "Eating" {
		t.Errorf("State text = %q, want Eating (via Stringer)", got)
	}
	if got := fields[1].Text(); got != "1.2s" && got != "1.3s" {
		t.Errorf("Timer text = %q", got)
	}
}

func TestExtractFieldsBarMax(t *testing.T) {
	fields := ExtractFields(components.Energy{Value: 80})
	if len(fields) != 1 || fields[0].Widget != WidgetBar {
		t.Fatalf("fields = %+v", fields)
	}
	if fields[0].Max() != 200 {
		t.Errorf("Max = %v, want 200", fields[0].Max())
	}
	if v, ok := FloatValue(fields[0].Value); !ok || v != 80 {
		t.Errorf("FloatValue = %v, %v", v, ok)
	}
}

func TestInspectSkipsEmpty(t *testing.T) {
	var nilAgent *components.Agent
	sections := Inspect(
		Named{"Health", &components.Health{Value: 10}},
		Named{"Tag", components.Producer{}},
		Named{"Agent", nilAgent},
	)
	if len(sections) != 1 || sections[0].Title != "Health" {
		t.Errorf("sections = %+v, want only Health", sections)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value any
		fmt   string
		want  string
	}{
		{float32(1.5), "", "1.50"},
		{3, "", "3"},
		{float32(2), "%.0fs", "2s"},
		{"x", "", "x"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.value, tt.fmt); got != tt.want {
			t.Errorf("FormatValue(%v, %q) = %q, want %q", tt.value, tt.fmt, got, tt.want)
		}
	}
}
