package settings

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/contentguard/internal/model"
)

func fullSettings() model.Settings {
	pin := "4321"
	s := model.DefaultSettings(t0)
	s.ProtectionLevel = model.LevelStrong
	s.Enabled = true
	s.VitalBlockingEnabled = true
	s.Pin = &pin
	s.CustomBlockedDomains = []string{"example.com"}
	s.CustomBlockedKeywords = []string{"secret"}
	s.AccountabilityPartner = &model.AccountabilityPartner{Email: "p@example.com", NotifyOnBlock: true, DailyReport: true}
	s.BlockHistory = []model.BlockedAttempt{
		{ID: "b", Timestamp: t1, Keyword: "casino", Reason: "kw", ProtectionLevel: model.LevelStrict},
		{ID: "a", Timestamp: t0, URL: "https://pornhub.com", Reason: "dom", ProtectionLevel: model.LevelLight},
	}
	return s
}

func TestCodecRoundTrip(t *testing.T) {
	cases := map[string]model.Settings{
		"defaults": model.DefaultSettings(t0),
		"full":     fullSettings(),
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			data, err := Marshal(want)
			if err != nil {
				t.Fatal(err)
			}
			got, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("unmarshal: %v\n%s", err, data)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("round trip mismatch\n got: %+v\nwant: %+v", got, want)
			}
		})
	}
}

func TestMarshalUsesDocumentFieldNames(t *testing.T) {
	data, err := Marshal(fullSettings())
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{
		`"enabled"`, `"protectionLevel"`, `"vitalBlockingEnabled"`, `"pin"`,
		`"customBlockedDomains"`, `"customBlockedKeywords"`, `"accountabilityPartner"`,
		`"notifyOnBlock"`, `"blockHistory"`, `"lastModified"`, `"2025-01-15T14:00:00Z"`,
	} {
		if !strings.Contains(string(data), field) {
			t.Errorf("expected %s in document", field)
		}
	}
}

func TestMarshalNormalizesEnabled(t *testing.T) {
	s := model.DefaultSettings(t0)
	s.Enabled = true
	data, err := Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"enabled": false`) {
		t.Errorf("expected enabled to follow level off:\n%s", data)
	}
}

const minimalDoc = `{
  "enabled": false,
  "protectionLevel": "off",
  "vitalBlockingEnabled": false,
  "customBlockedDomains": [],
  "customBlockedKeywords": [],
  "blockHistory": [],
  "lastModified": "2025-01-15T14:00:00.000Z"
}`

func TestUnmarshalAcceptsAbsentOptionalFields(t *testing.T) {
	s, err := Unmarshal([]byte(minimalDoc))
	if err != nil {
		t.Fatal(err)
	}
	if s.Pin != nil || s.AccountabilityPartner != nil {
		t.Errorf("expected no pin and no partner, got %+v", s)
	}
	if !s.LastModified.Equal(t0) {
		t.Errorf("lastModified = %v", s.LastModified)
	}
}

func TestUnmarshalRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `nope`},
		{"trailing data", minimalDoc + ` {}`},
		{"unknown field", strings.Replace(minimalDoc, `"enabled"`, `"bogus": 1, "enabled"`, 1)},
		{"missing level", strings.Replace(minimalDoc, `"protectionLevel": "off",`, ``, 1)},
		{"missing history", strings.Replace(minimalDoc, `"blockHistory": [],`, ``, 1)},
		{"unknown level", strings.Replace(minimalDoc, `"off"`, `"paranoid"`, 1)},
		{"short pin", strings.Replace(minimalDoc, `"enabled"`, `"pin": "12", "enabled"`, 1)},
		{"alpha pin", strings.Replace(minimalDoc, `"enabled"`, `"pin": "12ab", "enabled"`, 1)},
		{"partner without email", strings.Replace(minimalDoc, `"enabled"`, `"accountabilityPartner": {"notifyOnBlock": true}, "enabled"`, 1)},
		{"attempt with both", strings.Replace(minimalDoc, `"blockHistory": []`,
			`"blockHistory": [{"id":"1","timestamp":"2025-01-15T14:00:00Z","url":"u","keyword":"k","reason":"r","protectionLevel":"light"}]`, 1)},
		{"attempt with neither", strings.Replace(minimalDoc, `"blockHistory": []`,
			`"blockHistory": [{"id":"1","timestamp":"2025-01-15T14:00:00Z","reason":"r","protectionLevel":"light"}]`, 1)},
		{"attempt bad level", strings.Replace(minimalDoc, `"blockHistory": []`,
			`"blockHistory": [{"id":"1","timestamp":"2025-01-15T14:00:00Z","url":"u","reason":"r","protectionLevel":"max"}]`, 1)},
		{"attempt missing id", strings.Replace(minimalDoc, `"blockHistory": []`,
			`"blockHistory": [{"timestamp":"2025-01-15T14:00:00Z","url":"u","reason":"r","protectionLevel":"off"}]`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.doc))
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestUnmarshalRecomputesEnabled(t *testing.T) {
	doc := strings.Replace(minimalDoc, `"enabled": false`, `"enabled": true`, 1)
	s, err := Unmarshal([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if s.Enabled {
		t.Error("expected enabled to be derived from level off")
	}
}

func TestUnmarshalTruncatesLongHistory(t *testing.T) {
	s := model.DefaultSettings(t0)
	for i := 0; i < model.MaxHistory+5; i++ {
		s.BlockHistory = append(s.BlockHistory, model.BlockedAttempt{
			ID: "x", Timestamp: t0, Keyword: "k", Reason: "r", ProtectionLevel: model.LevelOff,
		})
	}
	data, err := Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.BlockHistory) != model.MaxHistory {
		t.Errorf("expected %d entries, got %d", model.MaxHistory, len(got.BlockHistory))
	}
}

func TestDecodeFallsBackToDefaults(t *testing.T) {
	s, err := Decode([]byte(`{"enabled": "yes"}`), t1)
	if err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(s, model.DefaultSettings(t1)) {
		t.Errorf("expected defaults, got %+v", s)
	}
}
