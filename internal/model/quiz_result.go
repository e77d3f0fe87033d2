package model

import "time"

// QuizResult 每答一题落一行；同一 (用户, 测验, 题序) 至多一行，重开测验时整组硬删除。
// 不走软删除：唯一索引要允许重开后重新作答。
type QuizResult struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint      `gorm:"index:idx_result_attempt,unique;type:bigint unsigned;not null" json:"userId"`
	QuizID        uint      `gorm:"index:idx_result_attempt,unique;type:bigint unsigned;not null" json:"quizId"`
	QuestionIndex int       `gorm:"index:idx_result_attempt,unique;not null" json:"questionIndex"`
	Selected      int       `gorm:"not null" json:"selected"`
	IsCorrect     bool      `gorm:"not null" json:"isCorrect"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}
