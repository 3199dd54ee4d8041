package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/iliyamo/pokemon-roulette/internal/model"
)

// Table names.  These are part of the on-disk contract.
const (
	TableUser              = "user"
	TableAccount           = "account"
	TableSession           = "session"
	TableVerificationToken = "verificationToken"
	TableCurrency          = "currency"
	TablePokemon           = "pokemon"
	TableAbility           = "ability"
	TablePokemonToAbility  = "pokemonToAbility"
	TableEvolution         = "evolution"
	TablePokemonToEvo      = "pokemonToEvolution"
	TableRouletteLogs      = "rouletteLogs"
	TableInventoryPokemon  = "inventoryPokemon"
	TableExpedition        = "expedition"
	TablePokemonStatus     = "pokemonStatus"
)

// Registry holds the table declarations in creation order together with
// the relation graph.
type Registry struct {
	tables    []*Table
	byName    map[string]*Table
	relations map[string][]Relation
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry, building it on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New()
	})
	return defaultReg
}

// New builds a fresh registry with every table of the game.
func New() *Registry {
	r := &Registry{byName: map[string]*Table{}, relations: map[string][]Relation{}}

	r.add(&Table{
		Name: TableUser,
		Columns: []Column{
			uuidKey("id").notNull(),
			varchar("name", 255),
			varchar("email", 255).notNull(),
			timestamp("emailVerified", 3).defaultNow(),
			varchar("image", 255),
			enum("role", roleValues()...).defaultTo(string(model.DefaultRole)),
		},
		PrimaryKey: []string{"id"},
	})
	r.add(&Table{
		Name: TableAccount,
		Columns: []Column{
			uuidKey("userId").notNull().references(TableUser, "id"),
			varchar("type", 255).notNull(),
			varchar("provider", 255).notNull(),
			varchar("providerAccountId", 255).notNull(),
			varchar("refresh_token", 255),
			varchar("access_token", 255),
			integer("expires_at"),
			varchar("token_type", 255),
			varchar("scope", 255),
			varchar("id_token", 2048),
			varchar("session_state", 255),
		},
		PrimaryKey: []string{"provider", "providerAccountId"},
	})
	r.add(&Table{
		Name: TableSession,
		Columns: []Column{
			varchar("sessionToken", 255).notNull(),
			uuidKey("userId").notNull().references(TableUser, "id"),
			timestamp("expires", 0).notNull(),
		},
		PrimaryKey: []string{"sessionToken"},
	})
	r.add(&Table{
		Name: TableVerificationToken,
		Columns: []Column{
			varchar("identifier", 255).notNull(),
			varchar("token", 255).notNull(),
			timestamp("expires", 0).notNull(),
		},
		PrimaryKey: []string{"identifier", "token"},
	})
	r.add(&Table{
		Name: TableCurrency,
		Columns: []Column{
			uuidKey("userId").notNull().references(TableUser, "id"),
			double("cash").defaultTo(model.DefaultCash),
			double("dust").defaultTo(model.DefaultDust),
			integer("numExpeditionsRemaining").defaultTo(model.DefaultNumExpeditionsRemaining),
		},
		PrimaryKey: []string{"userId"},
	})
	r.add(&Table{
		Name: TablePokemon,
		Columns: []Column{
			integer("entry").notNull(),
			varchar("name", 50).notNull(),
			enum("type", typeValues()...).notNull(),
			varchar("icon", 1000).notNull(),
			enum("rarity", rarityValues()...).notNull(),
		},
		PrimaryKey: []string{"entry"},
		// rouletteLogs.pokemonName references this column.
		Unique: [][]string{{"name"}},
	})
	r.add(&Table{
		Name: TableAbility,
		Columns: []Column{
			integer("id").notNull().autoIncrement(),
			varchar("name", 255).notNull(),
		},
		PrimaryKey: []string{"id"},
	})
	r.add(&Table{
		Name: TablePokemonToAbility,
		Columns: []Column{
			integer("pokemonEntry").notNull().references(TablePokemon, "entry"),
			integer("abilityId").notNull().references(TableAbility, "id"),
		},
		PrimaryKey: []string{"pokemonEntry", "abilityId"},
	})
	r.add(&Table{
		Name: TableEvolution,
		Columns: []Column{
			integer("id").notNull().autoIncrement(),
			integer("pokemonFrom").notNull().references(TablePokemon, "entry"),
			integer("pokemonTo").references(TablePokemon, "entry"),
		},
		PrimaryKey: []string{"id"},
	})
	r.add(&Table{
		Name: TablePokemonToEvo,
		Columns: []Column{
			integer("pokemonEntry").notNull().references(TablePokemon, "entry"),
			// part of the primary key, so NOT NULL on every engine
			integer("evolutionId").notNull().references(TableEvolution, "id"),
		},
		PrimaryKey: []string{"pokemonEntry", "evolutionId"},
	})
	r.add(&Table{
		Name: TableRouletteLogs,
		Columns: []Column{
			uuidKey("userId").notNull().references(TableUser, "id"),
			varchar("pokemonName", 50).notNull().references(TablePokemon, "name"),
			timestamp("timeRolled", 3).notNull().defaultNow(),
		},
		PrimaryKey: []string{"userId", "pokemonName", "timeRolled"},
	})
	r.add(&Table{
		Name: TableInventoryPokemon,
		Columns: []Column{
			uuidKey("id").notNull(),
			uuidKey("userId").notNull().references(TableUser, "id"),
			integer("pokemonEntry").notNull().references(TablePokemon, "entry"),
			boolean("shiny").notNull(),
			integer("level").defaultTo(model.DefaultLevel),
			integer("exp").defaultTo(model.DefaultExp),
			boolean("busy").defaultTo(model.DefaultBusy),
		},
		PrimaryKey: []string{"id"},
	})
	r.add(&Table{
		Name: TableExpedition,
		Columns: []Column{
			uuidKey("userId").notNull().references(TableUser, "id"),
			uuidKey("slotOne").notNull().references(TableInventoryPokemon, "id"),
			uuidKey("slotTwo").notNull().references(TableInventoryPokemon, "id"),
			uuidKey("slotThree").notNull().references(TableInventoryPokemon, "id"),
			integer("location").notNull(),
			integer("duration").notNull(),
			timestamp("timeStarted", 3).defaultNow(),
		},
		PrimaryKey: []string{"userId", "slotOne", "slotTwo", "slotThree"},
	})
	r.add(&Table{
		Name: TablePokemonStatus,
		Columns: []Column{
			integer("pokemonEntry").notNull().references(TablePokemon, "entry"),
			integer("hp").notNull(),
			integer("attack").notNull(),
			integer("defense").notNull(),
			integer("specialAttack").notNull(),
			integer("specialDefense").notNull(),
			integer("speed").notNull(),
		},
		PrimaryKey: []string{"pokemonEntry"},
	})

	r.relate(TablePokemon,
		Relation{Name: "abilities", Kind: Many, Target: TableAbility, Through: TablePokemonToAbility},
		Relation{Name: "evolutions", Kind: Many, Target: TableEvolution, Through: TablePokemonToEvo},
	)
	r.relate(TableAbility,
		Relation{Name: "pokemon", Kind: Many, Target: TablePokemon, Through: TablePokemonToAbility},
	)
	r.relate(TableEvolution,
		Relation{Name: "pokemon", Kind: Many, Target: TablePokemon, Through: TablePokemonToEvo},
	)
	r.relate(TablePokemonToAbility,
		Relation{Name: "pokemon", Kind: One, Target: TablePokemon, Fields: []string{"pokemonEntry"}, References: []string{"entry"}},
		Relation{Name: "ability", Kind: One, Target: TableAbility, Fields: []string{"abilityId"}, References: []string{"id"}},
	)
	r.relate(TablePokemonToEvo,
		Relation{Name: "pokemon", Kind: One, Target: TablePokemon, Fields: []string{"pokemonEntry"}, References: []string{"entry"}},
		Relation{Name: "evolution", Kind: One, Target: TableEvolution, Fields: []string{"evolutionId"}, References: []string{"id"}},
	)
	return r
}

func (r *Registry) add(t *Table) {
	r.tables = append(r.tables, t)
	r.byName[t.Name] = t
}

func (r *Registry) relate(table string, rels ...Relation) {
	r.relations[table] = append(r.relations[table], rels...)
}

// Tables returns the tables in creation order: every table appears after
// the tables it references.
func (r *Registry) Tables() []*Table {
	out := make([]*Table, len(r.tables))
	copy(out, r.tables)
	return out
}

// Table looks a table up by name.
func (r *Registry) Table(name string) (*Table, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Relations returns the declared relations of table.
func (r *Registry) Relations(table string) []Relation {
	return append([]Relation(nil), r.relations[table]...)
}

func (r *Registry) must(name string) *Table {
	t, ok := r.byName[name]
	if !ok {
		panic("schema: unknown table " + name)
	}
	return t
}

func (r *Registry) Users() *Table              { return r.must(TableUser) }
func (r *Registry) Accounts() *Table           { return r.must(TableAccount) }
func (r *Registry) Sessions() *Table           { return r.must(TableSession) }
func (r *Registry) VerificationTokens() *Table { return r.must(TableVerificationToken) }
func (r *Registry) Currency() *Table           { return r.must(TableCurrency) }
func (r *Registry) Pokemon() *Table            { return r.must(TablePokemon) }
func (r *Registry) Abilities() *Table          { return r.must(TableAbility) }
func (r *Registry) PokemonToAbility() *Table   { return r.must(TablePokemonToAbility) }
func (r *Registry) Evolutions() *Table         { return r.must(TableEvolution) }
func (r *Registry) PokemonToEvolution() *Table { return r.must(TablePokemonToEvo) }
func (r *Registry) RouletteLogs() *Table       { return r.must(TableRouletteLogs) }
func (r *Registry) InventoryPokemon() *Table   { return r.must(TableInventoryPokemon) }
func (r *Registry) Expeditions() *Table        { return r.must(TableExpedition) }
func (r *Registry) PokemonStatus() *Table      { return r.must(TablePokemonStatus) }

// Dependents returns the names of tables holding a foreign key to table,
// sorted by name.
func (r *Registry) Dependents(table string) []string {
	seen := map[string]bool{}
	for _, t := range r.tables {
		for _, c := range t.ForeignKeys() {
			if c.References.Table == table && t.Name != table {
				seen[t.Name] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CascadeClosure returns every table whose rows may be removed, directly
// or transitively, when a row of table is deleted.  The result is sorted
// and excludes table itself.
func (r *Registry) CascadeClosure(table string) []string {
	seen := map[string]bool{table: true}
	queue := []string{table}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, t := range r.tables {
			for _, c := range t.ForeignKeys() {
				if c.References.Table != cur || c.References.OnDelete != Cascade || seen[t.Name] {
					continue
				}
				seen[t.Name] = true
				queue = append(queue, t.Name)
			}
		}
	}
	delete(seen, table)
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate checks the registry for structural mistakes: duplicate column
// names, key columns that do not exist, foreign keys that point at
// unknown tables, at non-key columns, at tables declared later, or at a
// column of a different type, and keys wider than the MySQL index limit.
func (r *Registry) Validate() error {
	var errs []error
	position := map[string]int{}
	for i, t := range r.tables {
		position[t.Name] = i
	}
	for i, t := range r.tables {
		cols := map[string]bool{}
		for _, c := range t.Columns {
			if cols[c.Name] {
				errs = append(errs, fmt.Errorf("%s: duplicate column %q", t.Name, c.Name))
			}
			cols[c.Name] = true
			if c.Kind == KindEnum && len(c.Values) == 0 {
				errs = append(errs, fmt.Errorf("%s.%s: enum without values", t.Name, c.Name))
			}
		}
		if len(t.PrimaryKey) == 0 {
			errs = append(errs, fmt.Errorf("%s: missing primary key", t.Name))
		}
		for _, k := range t.PrimaryKey {
			c, ok := t.Column(k)
			if !ok {
				errs = append(errs, fmt.Errorf("%s: primary key column %q not declared", t.Name, k))
				continue
			}
			if !c.NotNull {
				errs = append(errs, fmt.Errorf("%s: primary key column %q is nullable", t.Name, k))
			}
		}
		for _, key := range append([][]string{t.PrimaryKey}, t.Unique...) {
			if n := t.KeyBytes(key...); n > maxKeyBytes {
				errs = append(errs, fmt.Errorf("%s: key %v is %d bytes, over the %d byte index limit", t.Name, key, n, maxKeyBytes))
			}
		}
		for _, u := range t.Unique {
			for _, k := range u {
				if _, ok := t.Column(k); !ok {
					errs = append(errs, fmt.Errorf("%s: unique column %q not declared", t.Name, k))
				}
			}
		}
		for _, c := range t.ForeignKeys() {
			fk := c.References
			parent, ok := r.byName[fk.Table]
			if !ok {
				errs = append(errs, fmt.Errorf("%s.%s: references unknown table %q", t.Name, c.Name, fk.Table))
				continue
			}
			if position[fk.Table] > i {
				errs = append(errs, fmt.Errorf("%s.%s: references %q declared later", t.Name, c.Name, fk.Table))
			}
			target, ok := parent.Column(fk.Column)
			if !ok {
				errs = append(errs, fmt.Errorf("%s.%s: references unknown column %s.%s", t.Name, c.Name, fk.Table, fk.Column))
				continue
			}
			if !parent.IsKey(fk.Column) {
				errs = append(errs, fmt.Errorf("%s.%s: references non-key column %s.%s", t.Name, c.Name, fk.Table, fk.Column))
			}
			if !sameType(c, target) {
				errs = append(errs, fmt.Errorf("%s.%s: type %s does not match %s.%s", t.Name, c.Name, c.Kind, fk.Table, fk.Column))
			}
		}
	}
	for table, rels := range r.relations {
		for _, rel := range rels {
			if _, ok := r.byName[rel.Target]; !ok {
				errs = append(errs, fmt.Errorf("%s: relation %q targets unknown table %q", table, rel.Name, rel.Target))
			}
			if rel.Through != "" {
				if _, ok := r.byName[rel.Through]; !ok {
					errs = append(errs, fmt.Errorf("%s: relation %q goes through unknown table %q", table, rel.Name, rel.Through))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func roleValues() []string {
	var out []string
	for _, v := range model.Roles() {
		out = append(out, string(v))
	}
	return out
}

func typeValues() []string {
	var out []string
	for _, v := range model.PokemonTypes() {
		out = append(out, string(v))
	}
	return out
}

func rarityValues() []string {
	var out []string
	for _, v := range model.Rarities() {
		out = append(out, string(v))
	}
	return out
}
