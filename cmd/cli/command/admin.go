package command

// admin.go holds the commands that work on the database directly.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"yamdb/database"
	"yamdb/internal/config"
	"yamdb/internal/logging"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/validation"
)

// openDB loads config the same way the API server does.
func openDB() (*gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: "warn", Format: "console"})
	return database.Connect(cfg)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.Migrate(db); err != nil {
			return err
		}
		fmt.Println(success("✓ Schema is up to date"))
		return nil
	},
}

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an admin account, or promote an existing one",
	Long: `Create a superuser with the admin role. If the username already exists and
the email matches, the account is promoted instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		if err := checkSuperuserInput(username, email); err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		ctx, cancel := commandContext(cmd)
		defer cancel()

		created, err := ensureSuperuser(ctx, repository.NewUserRepository(db), username, email)
		if err != nil {
			return err
		}
		if created {
			fmt.Println(success("✓ Superuser " + username + " created"))
		} else {
			fmt.Println(success("✓ " + username + " promoted to superuser"))
		}
		fmt.Println("Request a confirmation code with `yamdb auth signup` to log in.")
		return nil
	},
}

func checkSuperuserInput(username, email string) error {
	if !validation.ValidUsername(username) || username == validation.ReservedUsername {
		return fmt.Errorf("invalid username %q", username)
	}
	if err := validator.New().Var(email, "required,email,max=254"); err != nil {
		return fmt.Errorf("invalid email %q", email)
	}
	return nil
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Load reference data from CSV files",
	Long: fmt.Sprintf(`Load categories, genres, titles and optional users, reviews and comments
from a directory of CSV files (%s, %s, %s, %s, %s, %s, %s).
Everything is written in one transaction; rows are matched by id.`,
		database.CategoryFile, database.GenreFile, database.TitleFile, database.GenreTitleFile,
		database.UserFile, database.ReviewFile, database.CommentFile),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := database.LoadDataset(args[0])
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		ctx, cancel := commandContext(cmd)
		defer cancel()

		stats, err := database.Import(ctx, db, ds)
		if err != nil {
			return err
		}

		fmt.Println(bold("=== Import Summary ==="))
		fmt.Println(success(fmt.Sprintf("✓ Categories:   %d", stats.Categories)))
		fmt.Println(success(fmt.Sprintf("✓ Genres:       %d", stats.Genres)))
		fmt.Println(success(fmt.Sprintf("✓ Titles:       %d", stats.Titles)))
		fmt.Println(success(fmt.Sprintf("✓ Title genres: %d", stats.TitleGenres)))
		fmt.Println(success(fmt.Sprintf("✓ Users:        %d", stats.Users)))
		fmt.Println(success(fmt.Sprintf("✓ Reviews:      %d", stats.Reviews)))
		fmt.Println(success(fmt.Sprintf("✓ Comments:     %d", stats.Comments)))
		return nil
	},
}

var errEmailMismatch = errors.New("user exists with a different email")

// ensureSuperuser reports whether a new account was created.
func ensureSuperuser(ctx context.Context, users repository.UserRepository, username, email string) (bool, error) {
	existing, err := users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if !strings.EqualFold(existing.Email, email) {
			return false, fmt.Errorf("%s: %w", username, errEmailMismatch)
		}
		existing.Role = models.RoleAdmin
		existing.IsSuperuser = true
		return false, users.Update(ctx, existing)
	case !repository.IsNotFound(err):
		return false, err
	}

	u := &models.User{
		Username:    username,
		Email:       email,
		Role:        models.RoleAdmin,
		IsSuperuser: true,
	}
	if err := users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, fmt.Errorf("email %s is already used by another account", email)
		}
		return false, err
	}
	return true, nil
}

func init() {
	rootCmd.AddCommand(migrateCmd, createSuperuserCmd, importCmd)

	createSuperuserCmd.Flags().StringP("username", "u", "", "Username for the superuser")
	createSuperuserCmd.Flags().StringP("email", "e", "", "Email for the superuser")
	_ = createSuperuserCmd.MarkFlagRequired("username")
	_ = createSuperuserCmd.MarkFlagRequired("email")
}
