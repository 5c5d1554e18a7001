package oracle

import (
	"context"
	"errors"
	"testing"
)

type cityList struct {
	Cities []string `json:"cities"`
}

func TestDecodeJSON(t *testing.T) {
	t.Run("plain object", func(t *testing.T) {
		var out cityList
		if err := DecodeJSON(`{"cities":["Rome","Florence"]}`, &out); err != nil {
			t.Fatal(err)
		}
		if len(out.Cities) != 2 || out.Cities[0] != "Rome" {
			t.Errorf("cities = %v", out.Cities)
		}
	})

	t.Run("markdown fenced", func(t *testing.T) {
		var out cityList
		raw := "```json\n{\"cities\":[\"Hanoi\"]}\n```"
		if err := DecodeJSON(raw, &out); err != nil {
			t.Fatal(err)
		}
		if len(out.Cities) != 1 || out.Cities[0] != "Hanoi" {
			t.Errorf("cities = %v", out.Cities)
		}
	})

	t.Run("prose around object", func(t *testing.T) {
		var out cityList
		raw := `Here is the itinerary you asked for: {"cities":["Kyoto"]} Hope that helps!`
		if err := DecodeJSON(raw, &out); err != nil {
			t.Fatal(err)
		}
		if len(out.Cities) != 1 || out.Cities[0] != "Kyoto" {
			t.Errorf("cities = %v", out.Cities)
		}
	})

	t.Run("braces inside strings", func(t *testing.T) {
		var out struct {
			Note string `json:"note"`
		}
		raw := `prefix {"note":"use {curly} braces"} suffix`
		if err := DecodeJSON(raw, &out); err != nil {
			t.Fatal(err)
		}
		if out.Note != "use {curly} braces" {
			t.Errorf("note = %q", out.Note)
		}
	})

	t.Run("no json at all", func(t *testing.T) {
		var out cityList
		if err := DecodeJSON("sorry, I cannot help with that", &out); err == nil {
			t.Error("expected error for non-JSON response")
		}
	})
}

func TestMockCaller(t *testing.T) {
	t.Run("serves responses in order then repeats last", func(t *testing.T) {
		mock := NewMockCaller(`{"cities":["A"]}`, `{"cities":["B"]}`)

		var out cityList
		for i, want := range []string{"A", "B", "B", "B"} {
			if err := mock.StructuredCall(context.Background(), Request{Model: "m"}, &out); err != nil {
				t.Fatal(err)
			}
			if out.Cities[0] != want {
				t.Errorf("call %d = %v, want %s", i, out.Cities, want)
			}
		}
		if mock.CallCount() != 4 {
			t.Errorf("call count = %d, want 4", mock.CallCount())
		}
	})

	t.Run("records requests", func(t *testing.T) {
		mock := NewMockCaller(`{}`)
		var out map[string]any
		_ = mock.StructuredCall(context.Background(), Request{Prompt: "plan a trip", Temperature: 0.7}, &out)

		if len(mock.Calls) != 1 || mock.Calls[0].Prompt != "plan a trip" {
			t.Errorf("calls = %+v", mock.Calls)
		}
	})

	t.Run("fail mode", func(t *testing.T) {
		mock := NewMockCaller(`{}`)
		wantErr := errors.New("rate limited")
		mock.Fail(wantErr)

		var out map[string]any
		if err := mock.StructuredCall(context.Background(), Request{}, &out); !errors.Is(err, wantErr) {
			t.Errorf("error = %v, want %v", err, wantErr)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		mock := NewMockCaller(`{}`)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var out map[string]any
		if err := mock.StructuredCall(ctx, Request{}, &out); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}
