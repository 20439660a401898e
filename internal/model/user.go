package model

import "time"

// User 用户模型（仪表盘创作者账号）
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;comment:用户ID" json:"id"`
	UserName  string    `gorm:"type:varchar(64);uniqueIndex;not null;comment:用户名" json:"username"`
	Email     string    `gorm:"type:varchar(128);uniqueIndex;not null;comment:邮箱" json:"email"`
	Password  string    `gorm:"type:varchar(128);not null;comment:密码哈希" json:"-"`
	Avatar    *string   `gorm:"type:varchar(512);comment:头像URL" json:"avatar"`
	UserRole  string    `gorm:"type:varchar(16);default:user;comment:用户角色" json:"user_role"`
	CreatedAt time.Time `gorm:"autoCreateTime;comment:注册时间" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;comment:更新时间" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
