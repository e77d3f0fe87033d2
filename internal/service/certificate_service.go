package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"course_bot_backend/internal/model"
	"course_bot_backend/internal/util"
	"course_bot_backend/pkg/monitoring"

	"gorm.io/gorm"
)

// CertificateStore 证书记录的数据访问
type CertificateStore interface {
	Create(cert *model.Certificate) error
	FindByUserAndCourse(userID, courseID uint) (*model.Certificate, error)
	FindByUser(userID uint) ([]model.Certificate, error)
}

// CourseFinder 证书文案需要课程标题
type CourseFinder interface {
	FindByID(id uint) (*model.Course, error)
}

// ArtifactRenderer 证书产物渲染（PDF 等重渲染由外部实现，这里只约定接口）
type ArtifactRenderer interface {
	Render(user *model.User, course *model.Course, serial string, issuedAt time.Time) (data []byte, contentType string, err error)
}

// TextRenderer 默认的纯文本证书产物
type TextRenderer struct{}

func (TextRenderer) Render(user *model.User, course *model.Course, serial string, issuedAt time.Time) ([]byte, string, error) {
	body := fmt.Sprintf(
		"Certificate of Completion\n\n%s\nhas successfully completed the course\n%s\n\nSerial: %s\nIssued: %s\n",
		user.Name,
		course.Title,
		serial,
		issuedAt.Format(util.DateFormat),
	)
	return []byte(body), "text/plain; charset=utf-8", nil
}

// CertificateService 每个 (学员, 课程) 至多一张证书；
// 先查后建，撞唯一索引时回读已有记录而不是报错。
type CertificateService struct {
	Certs    CertificateStore
	Users    UserFinder
	Courses  CourseFinder
	Storage  StorageProvider
	Renderer ArtifactRenderer
}

func NewCertificateService(certs CertificateStore, users UserFinder, courses CourseFinder, storage StorageProvider, renderer ArtifactRenderer) *CertificateService {
	if renderer == nil {
		renderer = TextRenderer{}
	}
	return &CertificateService{
		Certs:    certs,
		Users:    users,
		Courses:  courses,
		Storage:  storage,
		Renderer: renderer,
	}
}

func (s *CertificateService) IssueOrGet(ctx context.Context, userID, courseID uint) (*model.Certificate, error) {
	if existing, err := s.Certs.FindByUserAndCourse(userID, courseID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user, err := s.Users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	course, err := s.Courses.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	serial := model.GenerateUUID()
	issuedAt := time.Now()

	data, contentType, err := s.Renderer.Render(user, course, serial, issuedAt)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("certificates/%d_%d_%s.txt", courseID, userID, serial)
	artifactURL, err := s.Storage.Upload(ctx, filename, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return nil, err
	}

	cert := &model.Certificate{
		UserID:      userID,
		CourseID:    courseID,
		Serial:      serial,
		ArtifactURL: artifactURL,
		IssuedAt:    issuedAt,
	}
	if err := s.Certs.Create(cert); err != nil {
		// 并发的重复触发撞了唯一索引：返回先到的那张
		if existing, findErr := s.Certs.FindByUserAndCourse(userID, courseID); findErr == nil {
			return existing, nil
		}
		return nil, err
	}

	monitoring.CertificatesIssued.Inc()
	return cert, nil
}

func (s *CertificateService) ListByUser(userID uint) ([]model.Certificate, error) {
	return s.Certs.FindByUser(userID)
}
