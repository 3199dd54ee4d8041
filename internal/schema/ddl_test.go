package schema_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/iliyamo/pokemon-roulette/internal/database"
	"github.com/iliyamo/pokemon-roulette/internal/schema"
	"github.com/iliyamo/pokemon-roulette/internal/testutil"
)

func TestMySQLDDL(t *testing.T) {
	r := schema.Default()
	script := r.Script(schema.MySQL)
	for _, want := range []string{
		"`role` ENUM('user','admin') DEFAULT 'user'",
		"`emailVerified` TIMESTAMP(3) DEFAULT CURRENT_TIMESTAMP(3)",
		"`numExpeditionsRemaining` INT DEFAULT 3",
		"`timeRolled` TIMESTAMP(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3)",
		"`id` INT NOT NULL AUTO_INCREMENT",
		"PRIMARY KEY (`userId`, `slotOne`, `slotTwo`, `slotThree`)",
		"CONSTRAINT `pokemon_name_unique` UNIQUE (`name`)",
		"CONSTRAINT `account_userId_user_id_fk` FOREIGN KEY (`userId`) REFERENCES `user` (`id`) ON DELETE CASCADE",
		"`slotOne` VARCHAR(255) CHARACTER SET ascii NOT NULL",
		"`id` VARCHAR(255) CHARACTER SET ascii NOT NULL",
		"ENGINE=InnoDB",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("MySQL script lacks %q", want)
		}
	}
	if n := strings.Count(script, "CREATE TABLE"); n != 14 {
		t.Errorf("CREATE TABLE count = %d, want 14", n)
	}
}

func TestSQLiteDDL(t *testing.T) {
	script := schema.Default().Script(schema.SQLite)
	for _, want := range []string{
		"`id` INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT",
		"CHECK (`rarity` IN ('common','uncommon','rare','epic','legendary','mythic'))",
		"strftime('%Y-%m-%d %H:%M:%f', 'now')",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("SQLite script lacks %q", want)
		}
	}
	if strings.Contains(script, "ENGINE=") || strings.Contains(script, "ENUM(") || strings.Contains(script, "CHARACTER SET") {
		t.Error("SQLite script carries MySQL syntax")
	}
}

func TestApplyIsIdempotentAndDropRemovesTables(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	r := schema.Default()

	if err := r.Apply(ctx, db, schema.SQLite); err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if err := r.Drop(ctx, db, schema.SQLite); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("%d tables left after Drop", n)
	}
}

// The properties below exercise the constraints of the rendered schema
// directly with SQL.

func TestDuplicateAccountRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	uid := testutil.CreateUser(t, db, "a@example.com")
	insert := "INSERT INTO `account` (`userId`, `type`, `provider`, `providerAccountId`) VALUES (?, 'oauth', 'discord', '42')"
	if _, err := db.Exec(insert, uid); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(insert, uid); !database.IsDuplicate(err) {
		t.Errorf("expected duplicate error, got %v", err)
	}
}

func TestRouletteLogKey(t *testing.T) {
	db := testutil.SetupTestDB(t)
	uid := testutil.CreateUser(t, db, "a@example.com")
	testutil.CreatePokemon(t, db, 1, "Bulbasaur")
	insert := "INSERT INTO `rouletteLogs` (`userId`, `pokemonName`, `timeRolled`) VALUES (?, 'Bulbasaur', ?)"

	if _, err := db.Exec(insert, uid, "2024-01-01 10:00:00.000"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(insert, uid, "2024-01-01 10:00:00.000"); !database.IsDuplicate(err) {
		t.Errorf("expected duplicate error, got %v", err)
	}
	if _, err := db.Exec(insert, uid, "2024-01-01 10:00:00.001"); err != nil {
		t.Errorf("distinct timestamp rejected: %v", err)
	}
	if _, err := db.Exec("INSERT INTO `rouletteLogs` (`userId`, `pokemonName`) VALUES (?, 'Missingno')", uid); !database.IsForeignKey(err) {
		t.Errorf("expected foreign key error, got %v", err)
	}
}

func TestCurrencyDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	uid := testutil.CreateUser(t, db, "a@example.com")
	var cash, dust float64
	var remaining int
	err := db.QueryRow("SELECT `cash`, `dust`, `numExpeditionsRemaining` FROM `currency` WHERE `userId` = ?", uid).
		Scan(&cash, &dust, &remaining)
	if err != nil {
		t.Fatal(err)
	}
	if cash != 0 || dust != 0 || remaining != 3 {
		t.Errorf("defaults = %v, %v, %d", cash, dust, remaining)
	}
}

func TestExpeditionSlotsMustExist(t *testing.T) {
	db := testutil.SetupTestDB(t)
	uid := testutil.CreateUser(t, db, "a@example.com")
	testutil.CreatePokemon(t, db, 1, "Bulbasaur")
	a := testutil.CreateInventory(t, db, uid, 1)
	b := testutil.CreateInventory(t, db, uid, 1)
	c := testutil.CreateInventory(t, db, uid, 1)
	insert := "INSERT INTO `expedition` (`userId`, `slotOne`, `slotTwo`, `slotThree`, `location`, `duration`) VALUES (?, ?, ?, ?, 1, 60)"

	if _, err := db.Exec(insert, uid, a, b, "no-such-pokemon"); !database.IsForeignKey(err) {
		t.Errorf("expected foreign key error, got %v", err)
	}
	if _, err := db.Exec(insert, uid, a, b, c); err != nil {
		t.Fatalf("valid expedition rejected: %v", err)
	}
	// deleting a slot pokemon removes the expedition
	if _, err := db.Exec("DELETE FROM `inventoryPokemon` WHERE `id` = ?", b); err != nil {
		t.Fatal(err)
	}
	if n := testutil.Count(t, db, "expedition", ""); n != 0 {
		t.Error("expedition survived slot deletion")
	}
}

func TestUserDeleteCascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	uid := testutil.CreateUser(t, db, "a@example.com")
	testutil.CreatePokemon(t, db, 1, "Bulbasaur")
	testutil.CreateInventory(t, db, uid, 1)
	mustExec(t, db, "INSERT INTO `session` (`sessionToken`, `userId`, `expires`) VALUES ('tok', ?, '2030-01-01 00:00:00')", uid)
	mustExec(t, db, "INSERT INTO `rouletteLogs` (`userId`, `pokemonName`) VALUES (?, 'Bulbasaur')", uid)

	mustExec(t, db, "DELETE FROM `user` WHERE `id` = ?", uid)
	for _, table := range schema.Default().CascadeClosure(schema.TableUser) {
		if n := testutil.Count(t, db, table, ""); n != 0 {
			t.Errorf("%s: %d rows left", table, n)
		}
	}
}

func mustExec(t *testing.T, db *sql.DB, q string, args ...any) {
	t.Helper()
	if _, err := db.Exec(q, args...); err != nil {
		t.Fatal(err)
	}
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]schema.Dialect{"mysql": schema.MySQL, " SQLite ": schema.SQLite, "sqlite3": schema.SQLite} {
		got, err := schema.ParseDialect(in)
		if err != nil || got != want {
			t.Errorf("ParseDialect(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := schema.ParseDialect("postgres"); err == nil {
		t.Error("postgres accepted")
	}
}
