package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParsePokemonType(t *testing.T) {
	tests := []struct {
		in      string
		want    PokemonType
		wantErr bool
	}{
		{in: "Fire", want: TypeFire},
		{in: "fire", want: TypeFire},
		{in: " PSYCHIC ", want: TypePsychic},
		{in: "Fairy", want: TypeFairy},
		{in: "Sound", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePokemonType(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got %q", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPokemonTypesOrder(t *testing.T) {
	types := PokemonTypes()
	if len(types) != 18 {
		t.Fatalf("Expected 18 types, got %d", len(types))
	}
	if types[0] != TypeNormal || types[17] != TypeFairy {
		t.Errorf("Unexpected order: first=%s last=%s", types[0], types[17])
	}
	types[0] = "mutated"
	if PokemonTypes()[0] != TypeNormal {
		t.Error("PokemonTypes must return a copy")
	}
}

func TestRarityRank(t *testing.T) {
	if RarityCommon.Rank() != 0 || RarityMythic.Rank() != 5 {
		t.Errorf("Unexpected ranks: common=%d mythic=%d", RarityCommon.Rank(), RarityMythic.Rank())
	}
	if Rarity("shiny").Valid() {
		t.Error("Expected unknown rarity to be invalid")
	}
	if _, err := ParseRarity("LEGENDARY"); err != nil {
		t.Errorf("Expected LEGENDARY to parse, got %v", err)
	}
}

func TestEnumScanAndValue(t *testing.T) {
	var r Rarity
	if err := r.Scan([]byte("epic")); err != nil || r != RarityEpic {
		t.Fatalf("Scan []byte: got %q, %v", r, err)
	}
	var pt PokemonType
	if err := pt.Scan("Ghost"); err != nil || pt != TypeGhost {
		t.Fatalf("Scan string: got %q, %v", pt, err)
	}
	if err := pt.Scan(int64(3)); err == nil {
		t.Error("Expected error scanning an integer")
	}
	var role Role
	if err := role.Scan(nil); err == nil {
		t.Error("Expected error scanning NULL role")
	}
	if _, err := Role("root").Value(); err == nil {
		t.Error("Expected Value to reject unknown role")
	}
	v, err := RoleAdmin.Value()
	if err != nil || v != "admin" {
		t.Errorf("Expected admin, got %v, %v", v, err)
	}
}

func TestEnumUnmarshalJSON(t *testing.T) {
	var body struct {
		Type   PokemonType `json:"type"`
		Rarity Rarity      `json:"rarity"`
	}
	if err := json.Unmarshal([]byte(`{"type":"water","rarity":"Rare"}`), &body); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if body.Type != TypeWater || body.Rarity != RarityRare {
		t.Errorf("Unexpected values: %+v", body)
	}
	if err := json.Unmarshal([]byte(`{"type":"Plasma"}`), &body); err == nil {
		t.Error("Expected error for unknown type")
	}
}

func TestPokemonValidate(t *testing.T) {
	ok := Pokemon{Entry: 25, Name: "Pikachu", Type: TypeElectric, Icon: "https://img/25.png", Rarity: RarityRare}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Expected valid pokemon, got %v", err)
	}
	bad := ok
	bad.Name = "ThisNameIsWayTooLongForTheFiftyCharacterColumnLimit!"
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for long name")
	}
	bad = ok
	bad.Entry = 0
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for zero entry")
	}
	bad = ok
	bad.Rarity = "ultra"
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for unknown rarity")
	}
}

func TestNewCurrencyDefaults(t *testing.T) {
	c := NewCurrency("u1")
	if c.Cash != 0 || c.Dust != 0 || c.NumExpeditionsRemaining != 3 {
		t.Errorf("Unexpected defaults: %+v", c)
	}
}

func TestExpeditionTiming(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	e := Expedition{SlotOne: "a", SlotTwo: "b", SlotThree: "c", Duration: 90, TimeStarted: start}
	if got := e.EndsAt(); !got.Equal(start.Add(90 * time.Minute)) {
		t.Errorf("Unexpected EndsAt: %v", got)
	}
	if e.Finished(start.Add(89 * time.Minute)) {
		t.Error("Expedition should not be finished before its duration")
	}
	if !e.Finished(start.Add(90 * time.Minute)) {
		t.Error("Expedition should be finished at EndsAt")
	}
	if slots := e.Slots(); slots != [3]string{"a", "b", "c"} {
		t.Errorf("Unexpected slots: %v", slots)
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	if (Session{Expires: now.Add(time.Minute)}).Expired(now) {
		t.Error("Session expiring in the future should be valid")
	}
	if !(Session{Expires: now}).Expired(now) {
		t.Error("Session expiring now should be expired")
	}
}
