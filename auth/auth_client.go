package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleTraveler Role = "traveler"
	RoleOwner    Role = "owner"
)

// Actor is the resolved identity a request acts as. The rest of the system
// only ever sees this, never session internals.
type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

type Account struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthClient interface {
	Signup(ctx context.Context, role Role, name, email, password string) (Account, error)
	Login(ctx context.Context, role Role, email, password string) (string, Account, error)
	Logout(ctx context.Context, token string) error
	ResolveSession(ctx context.Context, token string) (Actor, error)
}

const sessionTTL = 7 * 24 * time.Hour

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Client struct {
	pool  *pgxpool.Pool
	cache *cache.Cache
}

func NewClient(pool *pgxpool.Pool) *Client {
	return &Client{
		pool:  pool,
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

func accountTable(role Role) string {
	if role == RoleOwner {
		return "owners"
	}
	return "travelers"
}

func (c *Client) Signup(ctx context.Context, role Role, name, email, password string) (Account, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if len(name) == 0 || len(email) == 0 || len(password) == 0 {
		return Account{}, ErrMissingFields
	}

	if !emailPattern.MatchString(email) {
		return Account{}, ErrInvalidEmail
	}

	if len(password) < 6 {
		return Account{}, ErrPasswordTooShort
	}

	var exists bool
	err := c.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE email=$1);`, accountTable(role)),
		email,
	).Scan(&exists)

	if err != nil {
		return Account{}, fmt.Errorf("failed to check existing account: %w", err)
	}

	if exists {
		return Account{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	if err != nil {
		return Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	account := Account{Name: name, Email: email}
	err = c.pool.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s(name, email, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at;`, accountTable(role)),
		name, email, string(hash),
	).Scan(&account.ID, &account.CreatedAt)

	if err != nil {
		return Account{}, fmt.Errorf("failed to insert account: %w", err)
	}

	return account, nil
}

func (c *Client) Login(ctx context.Context, role Role, email, password string) (string, Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var account Account
	var hash string
	err := c.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, name, email, password_hash, created_at FROM %s WHERE email=$1;`, accountTable(role)),
		email,
	).Scan(&account.ID, &account.Name, &account.Email, &hash, &account.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", Account{}, ErrInvalidCredentials
	}

	if err != nil {
		return "", Account{}, fmt.Errorf("failed to fetch account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", Account{}, ErrInvalidCredentials
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(sessionTTL)

	_, err = c.pool.Exec(ctx,
		`INSERT INTO sessions(token, actor_id, role, expires_at) VALUES ($1, $2, $3, $4);`,
		token, account.ID, string(role), expiresAt,
	)

	if err != nil {
		return "", Account{}, fmt.Errorf("failed to create session: %w", err)
	}

	c.cache.Set(token, Actor{ID: account.ID, Role: role}, cache.DefaultExpiration)

	return token, account, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	c.cache.Delete(token)

	_, err := c.pool.Exec(ctx, `DELETE FROM sessions WHERE token=$1;`, token)

	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

func (c *Client) ResolveSession(ctx context.Context, token string) (Actor, error) {
	if len(token) == 0 {
		return Actor{}, ErrInvalidSession
	}

	if cached, found := c.cache.Get(token); found {
		return cached.(Actor), nil
	}

	var actor Actor
	var role string
	err := c.pool.QueryRow(ctx,
		`SELECT actor_id, role FROM sessions WHERE token=$1 AND expires_at > now();`,
		token,
	).Scan(&actor.ID, &role)

	if errors.Is(err, pgx.ErrNoRows) {
		return Actor{}, ErrInvalidSession
	}

	if err != nil {
		return Actor{}, fmt.Errorf("failed to resolve session: %w", err)
	}

	actor.Role = Role(role)
	c.cache.Set(token, actor, cache.DefaultExpiration)

	return actor, nil
}
