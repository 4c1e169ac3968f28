// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"testing"
)

func TestEventIDUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  EventID
	}{
		{name: "integer", input: `1`, want: "1"},
		{name: "float with zero fraction", input: `4.0`, want: "4"},
		{name: "uuid string", input: `"0b0f7c1e-6d1a-4a8e-9f8e-2d9c1f1b2a3c"`, want: "0b0f7c1e-6d1a-4a8e-9f8e-2d9c1f1b2a3c"},
		{name: "temp string", input: `"temp-1700000000"`, want: "temp-1700000000"},
		{name: "null", input: `null`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id EventID
			if err := json.Unmarshal([]byte(tt.input), &id); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.input, err)
			}
			if id != tt.want {
				t.Errorf("got %q, want %q", id, tt.want)
			}
		})
	}
}

func TestEventIDUnmarshalRejectsObjects(t *testing.T) {
	var id EventID
	if err := json.Unmarshal([]byte(`{"x":1}`), &id); err == nil {
		t.Error("expected error for object id")
	}
}

func TestEventIDMarshal(t *testing.T) {
	b, err := json.Marshal(Event{ID: "3", Title: "Worship Night"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"id":3,"title":"Worship Night","date":"","time":"","signupUrl":""}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}

	b, _ = json.Marshal(EventID("temp-9"))
	if string(b) != `"temp-9"` {
		t.Errorf("non-numeric id: got %s", b)
	}
}

func TestNormalizeLocalIDs(t *testing.T) {
	in := []Event{
		{ID: "2", Title: "A"},
		{ID: "0b0f7c1e-6d1a-4a8e-9f8e-2d9c1f1b2a3c", Title: "B"},
		{ID: "", Title: "C"},
		{ID: "7", Title: "D"},
		{ID: "2", Title: "E"},
	}

	out := NormalizeLocalIDs(in)

	want := []EventID{"2", "0b0f7c1e-6d1a-4a8e-9f8e-2d9c1f1b2a3c", "8", "7", "9"}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("event %d: id = %q, want %q", i, out[i].ID, id)
		}
		if out[i].Title != in[i].Title {
			t.Errorf("event %d: order changed", i)
		}
	}

	if in[2].ID != "" {
		t.Error("input slice was mutated")
	}
}

func TestSiteConfigCloneDoesNotShareEvents(t *testing.T) {
	c := SiteConfig{Events: []Event{{ID: "1", Title: "A"}}}
	cp := c.Clone()
	cp.Events[0].Title = "changed"
	if c.Events[0].Title != "A" {
		t.Error("Clone shares the events backing array")
	}
}

func TestPatchSetsEveryKey(t *testing.T) {
	c := SiteConfig{Announcement: Announcement{Active: true, Text: "hi"}}
	p := c.Patch()
	if p.Links == nil || p.Socials == nil || p.Announcement == nil || p.Events == nil {
		t.Fatalf("patch has unset keys: %+v", p)
	}
	if len(*p.Events) != 0 {
		t.Errorf("nil events should become an empty list, got %d", len(*p.Events))
	}
	if !*p.Announcement.Active || *p.Announcement.Text != "hi" {
		t.Errorf("announcement not carried: %+v", p.Announcement)
	}
}
