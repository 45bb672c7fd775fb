package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/projectbackend/backend/pkg/model"
	"github.com/projectbackend/backend/pkg/server/store"
)

// userCreateCmd represents the user create command
var userCreateCmd = &cobra.Command{
	Use:   "create <email> <name>",
	Short: "Create a user",
	Long: `Create a user that can log in to the backend.

The password is read from --password or the BACKEND_USER_PASSWORD
environment variable. The new user's primary key is written to STDOUT.

Example:
  BACKEND_USER_PASSWORD=secret backendctl user create ada@example.com "Ada Lovelace"`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		password, err := passwordFrom(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
			os.Exit(1)
		}

		users, err := openUsersStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
			os.Exit(1)
		}

		user, err := createUser(users, args[0], args[1], password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "Created user '%s'\n", user.Email)
		fmt.Println(user.PrimaryKey)
	},
}

// userResetPasswordCmd represents the user reset-password command
var userResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <email>",
	Short: "Replace a user's password",
	Long: `Replace a user's password.

The new password is read from --password or the BACKEND_USER_PASSWORD
environment variable. Existing sessions of the user stay valid.

Example:
  BACKEND_USER_PASSWORD=new-secret backendctl user reset-password ada@example.com`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		password, err := passwordFrom(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to reset password: %v\n", err)
			os.Exit(1)
		}

		users, err := openUsersStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to reset password: %v\n", err)
			os.Exit(1)
		}

		if err := resetPassword(users, args[0], password); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to reset password: %v\n", err)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "Password updated for '%s'\n", args[0])
	},
}

func init() {
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userResetPasswordCmd)
	userCreateCmd.Flags().String("password", "", "Password for the new user")
	userResetPasswordCmd.Flags().String("password", "", "New password")
}

func createUser(users store.UsersStore, email, name, password string) (*model.User, error) {
	return users.Add(model.User{Email: email, Name: name, Password: password})
}

func resetPassword(users store.UsersStore, email, password string) error {
	user, err := users.GetByNaturalKey(email)
	if err != nil {
		return err
	}
	user.Password = password
	return users.Update(*user)
}
