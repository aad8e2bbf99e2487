package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/storekit/storefront-api/internal/config"
	"github.com/storekit/storefront-api/internal/database"
	"github.com/storekit/storefront-api/internal/models"
)

// NewRoleCmd creates the role command
func NewRoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage user roles",
	}

	cmd.AddCommand(newRoleSetCmd())
	return cmd
}

func newRoleSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <email> <role>",
		Short: "Assign a role to a user",
		Long:  "Assign a role (user or admin) to the account with the given email",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, role := args[0], args[1]
			if role != models.RoleUser && role != models.RoleAdmin {
				return fmt.Errorf("invalid role %q: must be %q or %q", role, models.RoleUser, models.RoleAdmin)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			userRepo := database.NewUserRepository(db)
			if err := userRepo.SetRole(context.Background(), email, role); err != nil {
				return fmt.Errorf("failed to set role: %w", err)
			}

			fmt.Printf("Set role of %s to %s\n", email, role)
			return nil
		},
	}
}
