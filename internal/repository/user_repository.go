package repository

import (
	"time"

	"course_bot_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.DB.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByChatID(chatID int64) (*model.User, error) {
	var user model.User
	if err := r.DB.Where("chat_id = ?", chatID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByCourse 返回在课程里有过任何学习进度的用户（通知推送的收件人集合）
func (r *UserRepository) FindByCourse(courseID uint) ([]model.User, error) {
	var users []model.User
	err := r.DB.
		Joins("JOIN progress_records pr ON pr.user_id = users.id").
		Joins("JOIN lessons l ON l.id = pr.lesson_id").
		Where("l.course_id = ?", courseID).
		Distinct("users.*").
		Find(&users).Error
	return users, err
}

func (r *UserRepository) UpdateLastSeen(userID uint) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).Update("last_seen", time.Now()).Error
}
