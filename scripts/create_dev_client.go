package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"

	"github.com/franciscosanchezn/gin-hr-identity/internal/config"
	"github.com/franciscosanchezn/gin-hr-identity/internal/database"
	"github.com/franciscosanchezn/gin-hr-identity/internal/models"
	"github.com/franciscosanchezn/gin-hr-identity/internal/services"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Parse command line flags
	role := flag.String("role", models.RoleAdmin, "User role (admin or employee)")
	password := flag.String("password", "dev-password-123", "Password for a newly created user")
	redirectURI := flag.String("redirect-uri", "http://localhost:3000/callback", "Redirect URI of the development client")
	flag.Parse()

	if *role != models.RoleAdmin && *role != models.RoleEmployee {
		log.Fatalf("Unsupported role %q", *role)
	}

	_ = godotenv.Load()
	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.InitDatabase(database.FromConfig(conf))
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	ctx := context.Background()
	if err := services.NewScopeService(db).EnsureScopes(ctx, services.DefaultScopes); err != nil {
		log.Fatal("Failed to seed scopes:", err)
	}

	// Get or create user with specified role
	user := getUserForRole(ctx, db, *role, *password)

	clientService := services.NewClientService(db)
	name := fmt.Sprintf("Development %s Client", *role)

	// Check if client already exists
	clients, err := clientService.GetClientsByUserID(ctx, user.ID)
	if err != nil {
		log.Fatal("Failed to list clients:", err)
	}
	for _, existing := range clients {
		if existing.Name == name && !existing.Revoked {
			fmt.Printf("Development client already exists for role '%s'!\n", *role)
			fmt.Printf("Client ID: %s\n", existing.ID)
			fmt.Println("Regenerate its secret through the admin API if it was lost.")
			return
		}
	}

	client, secret, err := clientService.CreateClient(ctx, user.ID, services.ClientInput{
		Name:              name,
		RedirectURI:       *redirectURI,
		AllowedGrantTypes: []string{"authorization_code", "refresh_token", "password"},
		Confidential:      true,
	})
	if err != nil {
		log.Fatal("Failed to create client:", err)
	}

	authorize := url.Values{
		"response_type": {"code"},
		"client_id":     {client.ID},
		"redirect_uri":  {client.RedirectURI},
		"scope":         {"profile email"},
		"state":         {"dev"},
	}

	fmt.Printf("✓ Development OAuth client created for role '%s'!\n", *role)
	fmt.Printf("Client ID: %s\n", client.ID)
	fmt.Printf("Client Secret: %s\n", secret)
	fmt.Printf("User: %s (ID: %d)\n", user.Email, user.ID)
	fmt.Println("\nOpen this URL to sign in and get an authorization code:")
	fmt.Printf("%s/oauth/authorize?%s\n", conf.BaseURL, authorize.Encode())
	fmt.Println("\nOr get a token directly with the user's password:")
	fmt.Printf("curl -X POST %s/oauth/token \\\n", conf.BaseURL)
	fmt.Printf("  -u '%s:%s' \\\n", client.ID, secret)
	fmt.Printf("  -d 'grant_type=password' \\\n")
	fmt.Printf("  -d 'username=%s' \\\n", user.Email)
	fmt.Printf("  -d 'password=%s' \\\n", *password)
	fmt.Printf("  -d 'scope=profile email'\n")
}

// getUserForRole gets or creates a user with the specified role
func getUserForRole(ctx context.Context, db *gorm.DB, role, password string) *models.User {
	users := services.NewUserService(db)
	email := fmt.Sprintf("%s@hr.local", role)

	// Try to find existing user
	user, err := users.GetUserByEmail(ctx, email)
	if err == nil {
		fmt.Printf("Found existing user: %s (ID: %d, Role: %s)\n", user.Email, user.ID, user.Role)
		return user
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatal("Failed to look up user:", err)
	}

	// Create new user
	user = &models.User{
		Email:    email,
		Name:     fmt.Sprintf("%s User", role),
		Nickname: role,
		Password: password,
		Role:     role,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		log.Fatal("Failed to create user:", err)
	}

	fmt.Printf("Created new user: %s (ID: %d, Role: %s)\n", user.Email, user.ID, user.Role)
	return user
}
