package model

// swagger:model Course
type Course struct {
	BaseModel
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	// IsFree 不能挂 default 标签：gorm 对零值字段会落默认值，显式的 false 会被写成默认
	IsFree      bool   `json:"isFree"`
	// Price 付费课程价格（最小货币单位）；IsFree 时忽略
	Price       int      `gorm:"default:0" json:"price"`
	IsPublished bool     `gorm:"default:false" json:"isPublished"`
	Lessons     []Lesson `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// Lesson 课时，Position 是课程内的顺序位（从 0 开始，创建后不变；删除会留下空洞，不回填）
// swagger:model Lesson
type Lesson struct {
	BaseModel
	CourseID uint   `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	Position int    `gorm:"not null" json:"position"`
	Title    string `gorm:"size:255;not null" json:"title"`
	Content  string `gorm:"type:text" json:"content"`
}

func (Lesson) TableName() string {
	return "lessons"
}
