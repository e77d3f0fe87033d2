package model

import "encoding/json"

// Quiz 隶属于课程；LessonID 为空时是课程级综合测验
// swagger:model Quiz
type Quiz struct {
	BaseModel
	CourseID uint   `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	LessonID *uint  `gorm:"index;type:bigint unsigned" json:"lessonId,omitempty"`
	Position int    `gorm:"default:0" json:"position"`
	Title    string `gorm:"size:255;not null" json:"title"`

	Questions []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	QuizID   uint   `gorm:"index;type:bigint unsigned;not null" json:"quizId"`
	Position int    `gorm:"default:0" json:"position"`
	Text     string `gorm:"type:text;not null" json:"text"`
	// Options 选项文本（JSON array）
	Options       string `gorm:"type:json" json:"options"`
	CorrectOption int    `gorm:"not null" json:"-"`
	Explanation   string `gorm:"type:text" json:"explanation"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// OptionList 反序列化选项；损坏数据返回空列表
func (q *QuizQuestion) OptionList() []string {
	var opts []string
	if q.Options == "" {
		return opts
	}
	if err := json.Unmarshal([]byte(q.Options), &opts); err != nil {
		return nil
	}
	return opts
}

// SetOptions 序列化选项文本
func (q *QuizQuestion) SetOptions(opts []string) {
	b, _ := json.Marshal(opts)
	q.Options = string(b)
}
