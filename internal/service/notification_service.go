package service

import (
	"course_bot_backend/internal/model"
	"course_bot_backend/internal/repository"

	"go.uber.org/zap"
)

// MessageSender 把文案按用户的聊天标识投递出去
// 生产环境接 IM 网关，当前实现落日志
type MessageSender interface {
	Send(chatID int64, text string) error
}

type LogMessageSender struct {
	Logger *zap.Logger
}

func (s *LogMessageSender) Send(chatID int64, text string) error {
	s.Logger.Info("outbound message", zap.Int64("chatID", chatID), zap.String("text", text))
	return nil
}

// NotificationService 面向课程学员的群发通知
type NotificationService struct {
	Users      *repository.UserRepository
	Sender     MessageSender
	Translator *Translator
	Logger     *zap.Logger
}

func NewNotificationService(users *repository.UserRepository, sender MessageSender, translator *Translator, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		Users:      users,
		Sender:     sender,
		Translator: translator,
		Logger:     logger,
	}
}

type BroadcastReport struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// BroadcastToCourse 给有学习记录的学员逐个发送
// 单个学员失败只记日志，不中断后续投递
func (s *NotificationService) BroadcastToCourse(courseID uint, key string, params map[string]string) (*BroadcastReport, error) {
	users, err := s.Users.FindByCourse(courseID)
	if err != nil {
		return nil, err
	}
	report := &BroadcastReport{}
	for _, user := range users {
		if err := s.sendTo(&user, key, params); err != nil {
			report.Failed++
			s.Logger.Warn("broadcast delivery failed",
				zap.Uint("userID", user.ID),
				zap.Uint("courseID", courseID),
				zap.Error(err))
			continue
		}
		report.Sent++
	}
	return report, nil
}

// NotifyUser 单发，按用户语言偏好渲染文案
func (s *NotificationService) NotifyUser(user *model.User, key string, params map[string]string) error {
	return s.sendTo(user, key, params)
}

func (s *NotificationService) sendTo(user *model.User, key string, params map[string]string) error {
	lang := user.Language
	if lang == "" || !s.Translator.HasLanguage(lang) {
		lang = s.Translator.DefaultLanguage()
	}
	text := s.Translator.Resolve(key, lang, params)
	return s.Sender.Send(user.ChatID, text)
}
