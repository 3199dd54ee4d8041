package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/testutil"
)

func TestUserCreateAppliesDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	users := NewUserRepo(db)

	u := model.User{Email: "  Ash@Example.COM "}
	if err := users.Create(ctx, &u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.ID == "" {
		t.Fatal("Expected generated id")
	}
	if u.Email != "ash@example.com" {
		t.Errorf("Expected normalized email, got %q", u.Email)
	}
	if u.Role != model.RoleUser {
		t.Errorf("Expected default role user, got %q", u.Role)
	}
	if u.EmailVerified == nil {
		t.Error("Expected emailVerified column default to be applied")
	}

	got, err := users.GetByEmail(ctx, "ASH@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("Expected %s, got %s", u.ID, got.ID)
	}
}

func TestUserUpdateAndRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	users := NewUserRepo(db)

	u := model.User{Email: "misty@example.com"}
	if err := users.Create(ctx, &u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	name := "Misty"
	u.Name = &name
	u.EmailVerified = nil
	if err := users.Update(ctx, u); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := users.SetRole(ctx, u.ID, model.RoleAdmin); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	got, err := users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name == nil || *got.Name != "Misty" {
		t.Errorf("Expected name Misty, got %v", got.Name)
	}
	if got.EmailVerified != nil {
		t.Errorf("Expected emailVerified cleared, got %v", got.EmailVerified)
	}
	if !got.IsAdmin() {
		t.Errorf("Expected admin role, got %q", got.Role)
	}

	at := time.Date(2026, 1, 2, 3, 4, 5, 678_000_000, time.UTC)
	if err := users.MarkEmailVerified(ctx, u.ID, at); err != nil {
		t.Fatalf("MarkEmailVerified failed: %v", err)
	}
	got, _ = users.GetByID(ctx, u.ID)
	if got.EmailVerified == nil || !got.EmailVerified.Equal(at) {
		t.Errorf("Expected emailVerified %v, got %v", at, got.EmailVerified)
	}

	if err := users.SetRole(ctx, u.ID, model.Role("owner")); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for unknown role, got %v", err)
	}
	if err := users.SetRole(ctx, "missing", model.RoleAdmin); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUserGetMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	if _, err := NewUserRepo(db).GetByID(context.Background(), "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	uid := testutil.CreateUser(t, db, "brock@example.com")
	other := testutil.CreateUser(t, db, "gary@example.com")
	testutil.CreatePokemon(t, db, 1, "Bulbasaur")
	a := testutil.CreateInventory(t, db, uid, 1)
	b := testutil.CreateInventory(t, db, uid, 1)
	c := testutil.CreateInventory(t, db, uid, 1)
	testutil.CreateInventory(t, db, other, 1)

	if err := NewAccountRepo(db).Link(ctx, model.Account{UserID: uid, Type: "oauth", Provider: "github", ProviderAccountID: "42"}); err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if err := NewSessionRepo(db).Create(ctx, model.Session{SessionToken: "raw", UserID: uid, Expires: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("Session create failed: %v", err)
	}
	if err := NewRouletteRepo(db).Append(ctx, &model.RouletteLog{UserID: uid, PokemonName: "Bulbasaur"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO `expedition` (`userId`, `slotOne`, `slotTwo`, `slotThree`, `location`, `duration`) VALUES (?, ?, ?, ?, 1, 30)", uid, a, b, c); err != nil {
		t.Fatalf("Expedition insert failed: %v", err)
	}

	if err := NewUserRepo(db).Delete(ctx, uid); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	for _, table := range []string{"account", "session", "currency", "inventoryPokemon", "expedition", "rouletteLogs"} {
		if n := testutil.Count(t, db, table, "`userId` = ?", uid); n != 0 {
			t.Errorf("Expected no %s rows for deleted user, got %d", table, n)
		}
	}
	if n := testutil.Count(t, db, "inventoryPokemon", "`userId` = ?", other); n != 1 {
		t.Errorf("Expected other user's inventory untouched, got %d", n)
	}
	if n := testutil.Count(t, db, "pokemon", ""); n != 1 {
		t.Errorf("Expected catalog untouched, got %d rows", n)
	}
}
