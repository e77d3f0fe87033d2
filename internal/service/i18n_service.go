package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Translator 多语言文案目录，按语言各一份 yaml
// 缺词条时回退到默认语言，再缺就原样返回 key
type Translator struct {
	mu          sync.RWMutex
	catalogs    map[string]*viper.Viper
	defaultLang string
	logger      *zap.Logger
}

func NewTranslator(catalogPath, defaultLang string, logger *zap.Logger) (*Translator, error) {
	t := &Translator{
		catalogs:    make(map[string]*viper.Viper),
		defaultLang: defaultLang,
		logger:      logger,
	}
	entries, err := os.ReadDir(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("read i18n catalog dir: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		lang := strings.TrimSuffix(name, ".yaml")
		v := viper.New()
		v.SetConfigFile(filepath.Join(catalogPath, name))
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read i18n catalog %s: %w", name, err)
		}
		t.catalogs[lang] = v
		logger.Info("i18n catalog loaded", zap.String("lang", lang))
	}
	if _, ok := t.catalogs[defaultLang]; !ok {
		return nil, fmt.Errorf("default language catalog %q missing in %s", defaultLang, catalogPath)
	}
	return t, nil
}

// Resolve 取词条并替换 {name} 占位符
func (t *Translator) Resolve(key, lang string, params map[string]string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	text := t.lookup(key, lang)
	if text == "" {
		text = t.lookup(key, t.defaultLang)
	}
	if text == "" {
		t.logger.Warn("i18n key missing", zap.String("key", key), zap.String("lang", lang))
		return key
	}
	for name, value := range params {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}

func (t *Translator) lookup(key, lang string) string {
	catalog, ok := t.catalogs[lang]
	if !ok {
		return ""
	}
	return catalog.GetString(key)
}

// HasLanguage 用户语言偏好是否有对应目录
func (t *Translator) HasLanguage(lang string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.catalogs[lang]
	return ok
}

func (t *Translator) DefaultLanguage() string {
	return t.defaultLang
}
