package service

import (
	"errors"

	"kindboard-go/internal/api/dto"
	"kindboard-go/internal/model"
	"kindboard-go/internal/repository"
	"kindboard-go/pkg/utils"

	"gorm.io/gorm"
)

var (
	ErrUserExists         = errors.New("用户名或邮箱已被注册")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
)

type AuthService struct {
	userRepo *repository.UserRepository
}

func NewAuthService(userRepo *repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// Register 注册新用户
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.TokenData, error) {
	if _, err := s.userRepo.GetByUserName(req.UserName); err == nil {
		return nil, ErrUserExists
	}
	if _, err := s.userRepo.GetByEmail(req.Email); err == nil {
		return nil, ErrUserExists
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		UserName: req.UserName,
		Email:    req.Email,
		Password: hashed,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return s.buildTokenData(user)
}

// Login 登录
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.TokenData, error) {
	user, err := s.userRepo.GetByUserName(req.UserName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.VerifyPassword(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.buildTokenData(user)
}

// GetMe 获取当前用户信息
func (s *AuthService) GetMe(userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	info := toUserInfo(user)
	return &info, nil
}

func (s *AuthService) buildTokenData(user *model.User) (*dto.TokenData, error) {
	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.TokenData{Token: token, User: toUserInfo(user)}, nil
}

func toUserInfo(u *model.User) dto.UserInfo {
	return dto.UserInfo{
		ID:        u.ID,
		UserName:  u.UserName,
		Email:     u.Email,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}
