package auth

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/landscaipe/contractor-portal/internal/models"
)

// ErrDuplicateEmail is returned when registering with an email that already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrInvalidCredentials covers both unknown-email and wrong-password so the
// response never reveals which one it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ContractorStore is the contractor repository surface auth needs.
type ContractorStore interface {
	Create(ctx context.Context, c *models.Contractor) error
	GetByEmail(ctx context.Context, email string) (*models.Contractor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contractor, error)
}

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*models.Contractor, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error)
}

// RegisterInput is the signup payload after handler-level decoding.
type RegisterInput struct {
	Email           string
	Password        string
	CompanyName     string
	OwnerName       string
	Phone           string
	ServiceZips     []string
	MajorCategories []string
	SubCategories   []string
}

type service struct {
	contractors ContractorStore
	secret      []byte
}

func NewService(contractors ContractorStore) *service {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "supersecretmvp"
	}
	return &service{contractors: contractors, secret: []byte(secret)}
}

// Ensure service implements Service at compile time.
var _ Service = (*service)(nil)

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func (s *service) Register(ctx context.Context, in RegisterInput) (*models.Contractor, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	c := &models.Contractor{
		ID:              uuid.New(),
		Role:            models.RoleContractor,
		Status:          models.ContractorStatusActive,
		Email:           in.Email,
		PasswordHash:    string(hash),
		CompanyName:     in.CompanyName,
		OwnerName:       in.OwnerName,
		Phone:           in.Phone,
		Plan:            models.PlanPayAsYouGo,
		ServiceZips:     in.ServiceZips,
		MajorCategories: in.MajorCategories,
		SubCategories:   in.SubCategories,
	}
	if err := s.contractors.Create(ctx, c); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return c, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	c, err := s.contractors.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.issueToken(c.ID, c.Role)
}

// tokenLifetime matches the weekly re-login cadence contractors expect.
const tokenLifetime = 7 * 24 * time.Hour

func (s *service) issueToken(contractorID uuid.UUID, role string) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   contractorID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Role: role,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(ctx context.Context, token string) (uuid.UUID, string, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return uuid.Nil, "", errors.New("invalid token")
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, "", err
	}
	return id, c.Role, nil
}
