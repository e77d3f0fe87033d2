package model

import "time"

// ProgressRecord 学习进度账本：每个 (用户, 课时) 首次完成时写入一行，之后不再变更。
// 不走软删除，唯一索引即幂等保证。
type ProgressRecord struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"index:idx_user_lesson,unique;type:bigint unsigned;not null" json:"userId"`
	LessonID    uint      `gorm:"index:idx_user_lesson,unique;type:bigint unsigned;not null" json:"lessonId"`
	CompletedAt time.Time `json:"completedAt"`
}

func (ProgressRecord) TableName() string {
	return "progress_records"
}

// ProgressSummary 按需派生的课程完成度，不落库
type ProgressSummary struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}
