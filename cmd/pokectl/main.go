package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iliyamo/pokemon-roulette/internal/database"
	"github.com/iliyamo/pokemon-roulette/internal/model"
	"github.com/iliyamo/pokemon-roulette/internal/repository"
	"github.com/iliyamo/pokemon-roulette/internal/schema"
	"github.com/iliyamo/pokemon-roulette/internal/service"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(os.Getenv("DATABASE_URL")).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(dbURL string) *cobra.Command {
	root := &cobra.Command{
		Use:          "pokectl",
		Short:        "Administration tool for the pokemon roulette database",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dbURL, "database-url", dbURL, "database URL (mysql://... or sqlite:/path)")

	root.AddCommand(
		newSchemaCmd(&dbURL),
		newCatalogCmd(&dbURL),
		newUserCmd(&dbURL),
	)
	return root
}

func openDB(dbURL *string) (*sql.DB, schema.Dialect, error) {
	if strings.TrimSpace(*dbURL) == "" {
		return nil, 0, fmt.Errorf("database url required (--database-url or DATABASE_URL)")
	}
	return database.OpenURL(*dbURL)
}

func newSchemaCmd(dbURL *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Render or apply the table definitions",
	}

	var dialect string
	printCmd := &cobra.Command{
		Use:   "print",
		Short: "Print the CREATE TABLE script",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := schema.ParseDialect(dialect)
			if err != nil {
				return err
			}
			reg := schema.Default()
			if err := reg.Validate(); err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), reg.Script(d))
			return err
		},
	}
	printCmd.Flags().StringVar(&dialect, "dialect", "mysql", "mysql or sqlite")

	apply := &cobra.Command{
		Use:   "apply",
		Short: "Create every missing table",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, d, err := openDB(dbURL)
			if err != nil {
				return err
			}
			defer db.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			if err := schema.Default().Apply(ctx, db, d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema applied (%s)\n", d)
			return nil
		},
	}

	cmd.AddCommand(printCmd, apply)
	return cmd
}

func newCatalogCmd(dbURL *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the global pokemon catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file.json>",
		Short: "Upsert species, abilities, evolutions and stats from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			entries, err := service.ParseCatalog(f)
			if err != nil {
				return err
			}

			db, _, err := openDB(dbURL)
			if err != nil {
				return err
			}
			defer db.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			res, err := service.NewCatalogService(db).Import(ctx, entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d pokemon, %d ability links, %d evolution links, %d stat blocks\n",
				res.Pokemon, res.Abilities, res.Evolutions, res.Stats)
			return nil
		},
	})
	return cmd
}

func newUserCmd(dbURL *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "role <email> <user|admin>",
		Short: "Change the role of a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := model.ParseRole(args[1])
			if err != nil {
				return err
			}
			db, _, err := openDB(dbURL)
			if err != nil {
				return err
			}
			defer db.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			users := repository.NewUserRepo(db)
			u, err := users.GetByEmail(ctx, args[0])
			if err != nil {
				return fmt.Errorf("user %s: %w", args[0], err)
			}
			if err := users.SetRole(ctx, u.ID, role); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, role)
			return nil
		},
	})
	return cmd
}
