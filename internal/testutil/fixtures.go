package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/Athul-13/tablespot-api/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	name     string
	email    string
	password string
	phone    *string
}

// NewUserBuilder creates a new UserBuilder with a unique email
func NewUserBuilder() *UserBuilder {
	suffix := uuid.NewString()[:8]
	return &UserBuilder{
		name:     "Test User " + suffix,
		email:    fmt.Sprintf("user_%s@example.com", suffix),
		password: "testpassword123",
	}
}

func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.name = name
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) WithPhone(phone string) *UserBuilder {
	b.phone = &phone
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		Email:        strings.ToLower(strings.TrimSpace(b.email)),
		Name:         b.name,
		PasswordHash: string(hashedPassword),
		Phone:        b.phone,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// UserResponse matches the {user} body returned by signup, login and refresh
type UserResponse struct {
	User domain.AuthUser `json:"user"`
}

// BuildAndLogin signs the user up through the API and logs in with a fresh
// cookie-jar client. The returned client carries the session cookies.
func (b *UserBuilder) BuildAndLogin(t *testing.T, ts *TestServer) (*domain.AuthUser, *http.Client) {
	t.Helper()

	client := ts.NewClient(t)

	signup := map[string]any{
		"name":     b.name,
		"email":    b.email,
		"password": b.password,
	}
	if b.phone != nil {
		signup["phone"] = *b.phone
	}
	resp := DoJSON(t, client, http.MethodPost, ts.APIURL("/auth/signup"), signup)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: unexpected status code: %d", resp.StatusCode)
	}

	resp = DoJSON(t, client, http.MethodPost, ts.APIURL("/auth/login"), map[string]string{
		"email":    b.email,
		"password": b.password,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: unexpected status code: %d", resp.StatusCode)
	}

	var body UserResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	return &body.User, client
}

// RestaurantBuilder creates test restaurants with a builder pattern
type RestaurantBuilder struct {
	name        string
	fullAddress string
	phone       string
	cuisineType string
	imageURL    *string
}

func NewRestaurantBuilder() *RestaurantBuilder {
	return &RestaurantBuilder{
		name:        "Restaurant " + uuid.NewString()[:8],
		fullAddress: "1 Test Street, Testville",
		phone:       "+1 555 0100",
		cuisineType: "italian",
	}
}

func (b *RestaurantBuilder) WithName(name string) *RestaurantBuilder {
	b.name = name
	return b
}

func (b *RestaurantBuilder) WithCuisineType(cuisineType string) *RestaurantBuilder {
	b.cuisineType = cuisineType
	return b
}

func (b *RestaurantBuilder) WithImageURL(url string) *RestaurantBuilder {
	b.imageURL = &url
	return b
}

// Build creates the restaurant owned by owner.
func (b *RestaurantBuilder) Build(t *testing.T, db *gorm.DB, owner *domain.User) *domain.Restaurant {
	t.Helper()

	restaurant := &domain.Restaurant{
		Name:            b.name,
		FullAddress:     b.fullAddress,
		Phone:           b.phone,
		CuisineType:     b.cuisineType,
		ImageURL:        b.imageURL,
		CreatedByUserID: owner.ID,
	}

	if err := db.Omit(clause.Associations).Create(restaurant).Error; err != nil {
		t.Fatalf("failed to create restaurant: %v", err)
	}

	return restaurant
}

// NewJSONRequest creates an HTTP request with a JSON body and an optional bearer token
func NewJSONRequest(t *testing.T, method, url string, body any, token string) *http.Request {
	t.Helper()

	bodyReader := bytes.NewBuffer(nil)
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// DoJSON sends a JSON request with client. The caller closes the body.
func DoJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()

	resp, err := client.Do(NewJSONRequest(t, method, url, body, ""))
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}
