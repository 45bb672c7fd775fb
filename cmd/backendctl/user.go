package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/projectbackend/backend/pkg/db"
	"github.com/projectbackend/backend/pkg/server/store"
	gormstore "github.com/projectbackend/backend/pkg/server/store/gorm"
)

// userCmd represents the user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
	Long:  `Manage user accounts directly in the database.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'user' requires a subcommand (create, reset-password)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
}

func openUsersStore() (store.UsersStore, error) {
	database, err := db.Connect(db.Config{})
	if err != nil {
		return nil, err
	}
	return gormstore.NewUsersStore(database), nil
}

// passwordFrom prefers the flag value and falls back to BACKEND_USER_PASSWORD
func passwordFrom(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv("BACKEND_USER_PASSWORD")
	}
	if password == "" {
		return "", fmt.Errorf("a password is required (--password or BACKEND_USER_PASSWORD)")
	}
	return password, nil
}
