// internal/auth/auth.go
//
// Optional player accounts.
// Responsibilities:
//   - Signup/login with bcrypt password hashes.
//   - HS256 JWT issue/verify (Authorization: Bearer or auth cookie).
//   - Anonymous cookie so guests keep a stable identity for history and the
//     daily challenge.
//   - Middleware: Optional (never 401s) and Require.

package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidSignup      = errors.New("invalid signup")
)

// Player is a registered account.
type Player struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Config controls token and cookie behavior.
type Config struct {
	Secret      string
	ExpiresDays int
	CookieName  string
	Secure      bool // production: Secure + SameSite=None
}

// Service owns account storage and token handling.
type Service struct {
	db  *sql.DB
	cfg Config
}

// New constructs a Service.
func New(db *sql.DB, cfg Config) *Service {
	if cfg.ExpiresDays <= 0 {
		cfg.ExpiresDays = 14
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "flags_token"
	}
	return &Service{db: db, cfg: cfg}
}

// Signup validates input, checks uniqueness, hashes the password and inserts a player.
func (s *Service) Signup(ctx context.Context, username, pw string) (*Player, error) {
	username = normalizeUsername(username)
	if err := ValidateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	_ = s.db.QueryRowContext(ctx, `SELECT 1 FROM players WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if exists == 1 {
		return nil, ErrUsernameTaken
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	p := &Player{
		ID:           genID(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO players (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		p.ID, p.Username, p.PasswordHash, p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Login checks credentials.
func (s *Service) Login(ctx context.Context, username, pw string) (*Player, error) {
	p, err := s.findByUsername(ctx, normalizeUsername(username))
	if err != nil || !checkPassword(p.PasswordHash, pw) {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}

// FindByID loads a player.
func (s *Service) FindByID(ctx context.Context, id string) (*Player, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM players WHERE id=?`, id)
	return scanPlayer(row)
}

func (s *Service) findByUsername(ctx context.Context, username string) (*Player, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM players WHERE lower(username)=lower(?)`, username)
	return scanPlayer(row)
}

func scanPlayer(row *sql.Row) (*Player, error) {
	var p Player
	var created string
	if err := row.Scan(&p.ID, &p.Username, &p.PasswordHash, &created); err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &p, nil
}

// checkPassword is a bcrypt verifier.
func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// normalizeUsername trims whitespace.
func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// ValidateSignup enforces basic username/password rules.
func ValidateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return fmt.Errorf("%w: username must be 3-24 chars", ErrInvalidSignup)
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("%w: username: letters, numbers, underscore only", ErrInvalidSignup)
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return fmt.Errorf("%w: password must be 8-100 chars", ErrInvalidSignup)
	}
	return nil
}

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ------------------------------ JWT & cookies ------------------------------

// SignToken creates an HS256 JWT with id/username and the configured expiry.
func (s *Service) SignToken(p *Player) (string, time.Time, error) {
	exp := time.Now().Add(time.Duration(s.cfg.ExpiresDays) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       p.ID,
		"username": p.Username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.Secret))
	return ss, exp, err
}

// ParseToken verifies a token and returns its subject.
func (s *Service) ParseToken(tok string) (id, username string, err error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", "", ErrInvalidToken
	}
	id, _ = claims["id"].(string)
	username, _ = claims["username"].(string)
	if id == "" || username == "" {
		return "", "", ErrInvalidToken
	}
	return id, username, nil
}

func (s *Service) sameSite() http.SameSite {
	if s.cfg.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetCookie writes the auth token cookie.
func (s *Service) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: s.sameSite(),
		Expires:  exp,
	})
}

// ClearCookie deletes the auth token cookie.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: s.sameSite(),
		MaxAge:   -1,
	})
}

// AnonCookieName is the guest identity cookie.
const AnonCookieName = "flags_anon"

// AnonID returns the existing anon cookie value or sets a new one.
func (s *Service) AnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(AnonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	http.SetCookie(w, &http.Cookie{
		Name:     AnonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: s.sameSite(),
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// bearerOrCookie extracts a bearer token from the Authorization header or auth cookie.
func (s *Service) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}
