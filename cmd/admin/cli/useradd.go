package cli

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/hamidoujand/roster/internal/domains/user/bus"
	"github.com/hamidoujand/roster/internal/domains/user/store/userdb"
	"github.com/hamidoujand/roster/internal/errs"
	"github.com/spf13/cobra"
)

type newUser struct {
	Name       string   `json:"name" validate:"required,min=4"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=8,max=128"`
	Roles      []string `json:"roles" validate:"gt=0,dive,oneof=admin user"`
	Department string   `json:"department" validate:"required,oneof=sales shipping marketing"`
}

var (
	useraddDB dbFlags
	nu        newUser
)

func init() {
	rootCommand.AddCommand(useraddCommand)
	useraddDB.register(useraddCommand)

	useraddCommand.Flags().StringVar(&nu.Name, "username", "", "Full name of the user.")
	useraddCommand.Flags().StringVar(&nu.Email, "email", "", "Email of the user.")
	useraddCommand.Flags().StringVar(&nu.Password, "password", "", "Password of the user.")
	useraddCommand.Flags().StringSliceVar(&nu.Roles, "role", []string{bus.RoleUser.String()}, "Roles of the user, repeat or separate with commas.")
	useraddCommand.Flags().StringVar(&nu.Department, "department", "", "Department of the user.")
}

var useraddCommand = &cobra.Command{
	Use:   "useradd",
	Short: "creates a user",
	Long: `Create a user directly in the database.

Examples:
  admin useradd --username="John Doe" --email=john@doe.com --password=secret123 --role=admin --department=sales`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := useraddDB.validate(); err != nil {
			return err
		}

		if fields := errs.Check(nu); fields != nil {
			msgs := make([]string, 0, len(fields))
			for f, msg := range fields {
				msgs = append(msgs, fmt.Sprintf("%s: %s", f, msg))
			}
			return fmt.Errorf("invalid user: %s", strings.Join(msgs, "; "))
		}

		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		roles, err := bus.ParseManyRoles(nu.Roles)
		if err != nil {
			return fmt.Errorf("parseManyRoles: %w", err)
		}

		email, err := mail.ParseAddress(nu.Email)
		if err != nil {
			return fmt.Errorf("parseAddress: %w", err)
		}

		db, err := useraddDB.open(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		usrBus := bus.New(userdb.NewStore(db, nil), nil)

		usr, err := usrBus.Create(cmd.Context(), bus.NewUser{
			Name:       nu.Name,
			Email:      *email,
			Roles:      roles,
			Department: nu.Department,
			Password:   nu.Password,
		})
		if err != nil {
			return fmt.Errorf("create: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "user created, id=%s\n", usr.ID)
		return nil
	},
}
