package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// PokemonType is the elemental type of a catalog entry.
type PokemonType string

const (
	TypeNormal   PokemonType = "Normal"
	TypeFire     PokemonType = "Fire"
	TypeWater    PokemonType = "Water"
	TypeGrass    PokemonType = "Grass"
	TypeFlying   PokemonType = "Flying"
	TypeFighting PokemonType = "Fighting"
	TypePoison   PokemonType = "Poison"
	TypeElectric PokemonType = "Electric"
	TypeGround   PokemonType = "Ground"
	TypeRock     PokemonType = "Rock"
	TypePsychic  PokemonType = "Psychic"
	TypeIce      PokemonType = "Ice"
	TypeBug      PokemonType = "Bug"
	TypeGhost    PokemonType = "Ghost"
	TypeSteel    PokemonType = "Steel"
	TypeDragon   PokemonType = "Dragon"
	TypeDark     PokemonType = "Dark"
	TypeFairy    PokemonType = "Fairy"
)

// pokemonTypes keeps the ENUM declaration order of the `pokemon`.type column.
var pokemonTypes = []PokemonType{
	TypeNormal, TypeFire, TypeWater, TypeGrass, TypeFlying, TypeFighting,
	TypePoison, TypeElectric, TypeGround, TypeRock, TypePsychic, TypeIce,
	TypeBug, TypeGhost, TypeSteel, TypeDragon, TypeDark, TypeFairy,
}

// PokemonTypes returns all 18 types in column declaration order.
func PokemonTypes() []PokemonType {
	out := make([]PokemonType, len(pokemonTypes))
	copy(out, pokemonTypes)
	return out
}

func (t PokemonType) Valid() bool {
	for _, v := range pokemonTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ParsePokemonType returns the canonical spelling of s, ignoring case.
func ParsePokemonType(s string) (PokemonType, error) {
	s = strings.TrimSpace(s)
	for _, v := range pokemonTypes {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid pokemon type %q", s)
}

func (t PokemonType) String() string { return string(t) }

func (t PokemonType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid pokemon type %q", string(t))
	}
	return string(t), nil
}

func (t *PokemonType) Scan(src any) error {
	s, err := enumString(src)
	if err != nil {
		return err
	}
	parsed, err := ParsePokemonType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t *PokemonType) UnmarshalText(b []byte) error {
	parsed, err := ParsePokemonType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Rarity is the six-level tier of a catalog entry, from common to mythic.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
)

var rarities = []Rarity{
	RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary, RarityMythic,
}

// Rarities returns the tiers in ascending order.
func Rarities() []Rarity {
	out := make([]Rarity, len(rarities))
	copy(out, rarities)
	return out
}

func (r Rarity) Valid() bool { return r.Rank() >= 0 }

// Rank is the zero-based position of r in the tier order, or -1 when r
// is not a declared tier.
func (r Rarity) Rank() int {
	for i, v := range rarities {
		if v == r {
			return i
		}
	}
	return -1
}

func ParseRarity(s string) (Rarity, error) {
	r := Rarity(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid rarity %q", s)
	}
	return r, nil
}

func (r Rarity) String() string { return string(r) }

func (r Rarity) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rarity %q", string(r))
	}
	return string(r), nil
}

func (r *Rarity) Scan(src any) error {
	s, err := enumString(src)
	if err != nil {
		return err
	}
	parsed, err := ParseRarity(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r *Rarity) UnmarshalText(b []byte) error {
	parsed, err := ParseRarity(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Pokemon is a catalog entry keyed by its national dex number.  Catalog
// rows are global: player tables reference them and never modify them.
//
// Fields:
//  Entry  – dex number, primary key.
//  Name   – species name, at most 50 characters, unique.
//  Type   – elemental type.
//  Icon   – sprite URL, at most 1000 characters.
//  Rarity – rarity tier.
type Pokemon struct {
	Entry  int         // pokemon.entry
	Name   string      // pokemon.name
	Type   PokemonType // pokemon.type
	Icon   string      // pokemon.icon
	Rarity Rarity      // pokemon.rarity
}

// Validate checks the column limits and closed sets of p.
func (p Pokemon) Validate() error {
	switch {
	case p.Entry <= 0:
		return fmt.Errorf("entry must be positive")
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("name is required")
	case len(p.Name) > 50:
		return fmt.Errorf("name exceeds 50 characters")
	case !p.Type.Valid():
		return fmt.Errorf("invalid pokemon type %q", string(p.Type))
	case strings.TrimSpace(p.Icon) == "":
		return fmt.Errorf("icon is required")
	case len(p.Icon) > 1000:
		return fmt.Errorf("icon exceeds 1000 characters")
	case !p.Rarity.Valid():
		return fmt.Errorf("invalid rarity %q", string(p.Rarity))
	}
	return nil
}

// Ability is a catalog ability with an auto-incremented id.
type Ability struct {
	ID   int64  // ability.id
	Name string // ability.name
}

// PokemonAbility is a row of the pokemonToAbility join table.
type PokemonAbility struct {
	PokemonEntry int   // pokemonToAbility.pokemonEntry
	AbilityID    int64 // pokemonToAbility.abilityId
}

// Evolution is a directed edge between two catalog entries.  PokemonTo is
// nil for a terminal stage.
type Evolution struct {
	ID          int64 // evolution.id
	PokemonFrom int   // evolution.pokemonFrom
	PokemonTo   *int  // evolution.pokemonTo (nullable)
}

// Terminal reports whether the edge marks the last stage of a chain.
func (e Evolution) Terminal() bool { return e.PokemonTo == nil }

// PokemonEvolution is a row of the pokemonToEvolution join table, which
// records the evolution chains a catalog entry participates in.
type PokemonEvolution struct {
	PokemonEntry int   // pokemonToEvolution.pokemonEntry
	EvolutionID  int64 // pokemonToEvolution.evolutionId
}

// PokemonStatus is the base stat block of a catalog entry (1:1).
type PokemonStatus struct {
	PokemonEntry   int // pokemonStatus.pokemonEntry
	HP             int // pokemonStatus.hp
	Attack         int // pokemonStatus.attack
	Defense        int // pokemonStatus.defense
	SpecialAttack  int // pokemonStatus.specialAttack
	SpecialDefense int // pokemonStatus.specialDefense
	Speed          int // pokemonStatus.speed
}

// Total is the sum of all six base stats.
func (s PokemonStatus) Total() int {
	return s.HP + s.Attack + s.Defense + s.SpecialAttack + s.SpecialDefense + s.Speed
}
