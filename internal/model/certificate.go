package model

import "time"

// Certificate 每个 (用户, 课程) 至多一张；重复触发返回已有记录
// swagger:model Certificate
type Certificate struct {
	BaseModel
	UserID   uint `gorm:"index:idx_user_course_cert,unique;type:bigint unsigned;not null" json:"userId"`
	CourseID uint `gorm:"index:idx_user_course_cert,unique;type:bigint unsigned;not null" json:"courseId"`
	// Serial 对外展示的证书编号
	Serial      string    `gorm:"size:36;unique;not null" json:"serial"`
	ArtifactURL string    `gorm:"size:255" json:"artifactUrl"`
	IssuedAt    time.Time `json:"issuedAt"`
}

func (Certificate) TableName() string {
	return "certificates"
}
