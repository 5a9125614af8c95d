package service

import (
	"context"
	"fmt"
	"time"

	"heladeria/internal/config"
	"heladeria/internal/dto"
	"heladeria/internal/middleware"
	"heladeria/internal/model"
	"heladeria/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	// GuardarUsuario creates the account or, when the username exists,
	// resets its name, role and password and reactivates it.
	GuardarUsuario(ctx context.Context, username, nombre, password, rol string) (*dto.UsuarioResponse, error)
}

type authService struct {
	repo repository.UsuarioRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewAuthService(repo repository.UsuarioRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg, now: time.Now}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil || !user.Activo {
		return nil, ErrCredenciales
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrCredenciales
	}
	return s.emitir(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := middleware.ParseToken(refreshToken, s.cfg.JWTSecret)
	if err != nil || claims.Tipo != middleware.TokenRefresh {
		return nil, fmt.Errorf("%w: refresh token invalido o expirado", ErrCredenciales)
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil || !user.Activo {
		return nil, fmt.Errorf("%w: usuario no encontrado o inactivo", ErrCredenciales)
	}
	return s.emitir(user)
}

func (s *authService) GuardarUsuario(ctx context.Context, username, nombre, password, rol string) (*dto.UsuarioResponse, error) {
	switch rol {
	case model.RolStaff, model.RolCadete, model.RolAdmin:
	default:
		return nil, validacion("rol %q desconocido", rol)
	}
	if len(password) < 4 {
		return nil, validacion("la contrasena debe tener al menos 4 caracteres")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		user.Nombre = nombre
		user.Rol = rol
		user.PasswordHash = string(hash)
		user.Activo = true
		err = s.repo.Update(ctx, user)
	case !repository.IsNotFound(err):
		return nil, err
	default:
		user = &model.Usuario{
			Username:     username,
			Nombre:       nombre,
			PasswordHash: string(hash),
			Rol:          rol,
			Activo:       true,
		}
		err = s.repo.Create(ctx, user)
	}
	if err != nil {
		return nil, err
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) emitir(user *model.Usuario) (*dto.LoginResponse, error) {
	access, err := s.generateToken(user, middleware.TokenAccess, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(user, middleware.TokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         usuarioToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.Usuario, tipo string, duration time.Duration) (string, error) {
	now := s.now()
	claims := middleware.JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		Rol:      user.Rol,
		Tipo:     tipo,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func usuarioToResponse(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{ID: u.ID, Username: u.Username, Nombre: u.Nombre, Rol: u.Rol}
}
