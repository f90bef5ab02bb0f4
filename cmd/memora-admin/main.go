package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	webservices "github.com/memoralabs/memora/backend/services"
	"github.com/memoralabs/memora/memora"
	"github.com/memoralabs/memora/memora/database"
	"github.com/memoralabs/memora/memora/database/models"
	"github.com/memoralabs/memora/memora/database/repositories"
	"github.com/memoralabs/memora/memora/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "memora-admin",
	Short: "Operational tooling for the Memora service",
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "create a superAdmin staff account and print its access code",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		uid, _ := cmd.Flags().GetString("uid")
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		if uid == "" {
			uid = uuid.NewString()
		}

		cfg, err := memora.LoadConfig(configPath)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		db, err := database.New(ctx, cfg.Mongo, cfg.Postgres)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			return err
		}
		defer db.Close(ctx)

		if err := db.InitializeSchema(ctx); err != nil {
			slog.Error("Failed to initialize schema", "error", err)
			return err
		}

		account := &models.Staff{
			UID:         uid,
			Email:       email,
			DisplayName: name,
			Role:        models.RoleSuperAdmin,
		}

		staffRepo := repositories.NewStaffRepository(db.BunDB())
		if err := staffRepo.Upsert(ctx, account); err != nil {
			slog.Error("Failed to create staff account", "error", err)
			return err
		}

		sessions := webservices.NewSessionService(cfg)
		fmt.Printf("staff uid:   %s\n", account.UID)
		fmt.Printf("access code: %s\n", sessions.AccessCodeFor(account.UID))
		return nil
	},
}

var accessCodeCmd = &cobra.Command{
	Use:   "access-code",
	Short: "print the login access code for an existing staff uid",
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, _ := cmd.Flags().GetString("uid")
		if uid == "" {
			return fmt.Errorf("--uid is required")
		}

		cfg, err := memora.LoadConfig(configPath)
		if err != nil {
			return err
		}

		sessions := webservices.NewSessionService(cfg)
		fmt.Println(sessions.AccessCodeFor(uid))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to the config file")

	bootstrapCmd.Flags().String("email", "", "email of the new superAdmin")
	bootstrapCmd.Flags().String("name", "", "display name of the new superAdmin")
	bootstrapCmd.Flags().String("uid", "", "uid to assign (generated when empty)")
	rootCmd.AddCommand(bootstrapCmd)

	accessCodeCmd.Flags().String("uid", "", "staff uid")
	rootCmd.AddCommand(accessCodeCmd)
}

func main() {
	slog.SetDefault(slog.New(logger.NewHandler("Memora-Admin")))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
