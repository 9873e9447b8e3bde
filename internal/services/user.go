package services

import (
	"context"

	"github.com/medigate/medigate-cli/internal/api"
	"github.com/medigate/medigate-cli/internal/models"
	"github.com/medigate/medigate-cli/internal/securestore"
	"go.uber.org/zap"
)

// UserService owns the token and cached-user side effects around every
// authentication call.
type UserService struct {
	client *api.Client
	creds  *securestore.Store
	logger *zap.Logger
}

func NewUserService(client *api.Client, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{client: client, creds: client.Credentials(), logger: logger}
}

func (s *UserService) Login(ctx context.Context, email, password string) api.Result[models.LoginResponse] {
	res := api.Post[models.LoginResponse](ctx, s.client, api.UserLogin, models.LoginRequest{Email: email, Password: password}, nil)
	return s.establish(ctx, res, "Login failed")
}

func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) api.Result[models.LoginResponse] {
	res := api.Post[models.LoginResponse](ctx, s.client, api.UserRegister, req, nil)
	return s.establish(ctx, res, "Registration failed")
}

// establish persists the credentials of a successful login or register.
// A credential that cannot be stored fails the whole call.
func (s *UserService) establish(ctx context.Context, res api.Result[models.LoginResponse], fallback string) api.Result[models.LoginResponse] {
	if !res.OK() {
		msg := res.Error
		if msg == "" || msg == api.GenericFailure {
			msg = fallback
		}
		return api.Fail[models.LoginResponse](msg)
	}

	resp := res.Data
	if resp.Token == "" {
		if resp.Message != "" {
			return api.Fail[models.LoginResponse](resp.Message)
		}
		return api.Fail[models.LoginResponse](fallback)
	}

	if err := s.client.SetAuthToken(ctx, resp.Token); err != nil {
		s.logger.Error("Failed to persist auth token", zap.Error(err))
		return api.Fail[models.LoginResponse](err.Error())
	}
	if resp.RefreshToken != "" {
		if err := s.creds.SaveRefreshToken(ctx, resp.RefreshToken); err != nil {
			s.logger.Error("Failed to persist refresh token", zap.Error(err))
			return api.Fail[models.LoginResponse](err.Error())
		}
	}
	if resp.User != nil {
		if err := s.creds.SaveUser(ctx, *resp.User); err != nil {
			s.logger.Warn("Failed to cache user snapshot", zap.Error(err))
		}
	}

	resp.Success = true
	return api.Ok(resp)
}

// Logout clears the local session first, then tells the server. The remote
// result is returned but local state is already gone either way.
func (s *UserService) Logout(ctx context.Context) api.Result[struct{}] {
	s.creds.ClearSession(ctx)

	res := api.Post[struct{}](ctx, s.client, api.UserLogout, struct{}{}, nil)
	if !res.OK() {
		s.logger.Warn("Remote logout failed", zap.String("error", res.Error))
	}
	return res
}

func (s *UserService) GetUser(ctx context.Context) api.Result[models.User] {
	return api.Get[models.User](ctx, s.client, api.User, nil)
}

// UpdateUser sends a partial profile and refreshes the cached snapshot when
// the backend returns the updated user.
func (s *UserService) UpdateUser(ctx context.Context, updates models.UserPatch) api.Result[models.User] {
	res := api.Put[models.User](ctx, s.client, api.UserUpdate, models.UpdateUserRequest{Updates: updates}, nil)
	if res.HasData() {
		if err := s.creds.SaveUser(ctx, res.Data); err != nil {
			s.logger.Warn("Failed to cache user snapshot", zap.Error(err))
		}
	}
	return res
}

func (s *UserService) IsAuthenticated(ctx context.Context) bool {
	return s.creds.IsAuthenticated(ctx)
}
