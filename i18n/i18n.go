package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLanguage 是所有語言解析的最終回退值
const DefaultLanguage = "fa"

var supported = map[string]bool{
	"fa": true,
	"en": true,
}

// Translator 包裝訊息目錄，依請求語言產生對應的翻譯
type Translator struct {
	bundle *goi18n.Bundle
}

// New 載入內嵌的語言檔並建立翻譯器
func New() (*Translator, error) {
	const op = "i18n.New"
	bundle := goi18n.NewBundle(language.Persian)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, name := range []string{"locales/fa.json", "locales/en.json"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, name); err != nil {
			return nil, fmt.Errorf("[%s] Fail to load message file %s, err=%w", op, name, err)
		}
	}
	return &Translator{bundle: bundle}, nil
}

// Localize 翻譯指定的訊息，找不到翻譯時回退到訊息 ID
func (t *Translator) Localize(lang, messageID string, data map[string]any) string {
	localizer := goi18n.NewLocalizer(t.bundle, lang, DefaultLanguage)
	message, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug("missing translation", slog.String("messageID", messageID), slog.String("lang", lang))
		return messageID
	}
	return message
}

// Resolve 依優先序決定請求的語言:
// query 參數 > x-app-language 標頭 > Accept-Language > 使用者偏好 > 預設語言
// 不支援的語言一律略過
func Resolve(candidates ...string) string {
	if lang, ok := ResolveExplicit(candidates...); ok {
		return lang
	}
	return DefaultLanguage
}

// ResolveExplicit 與 Resolve 相同，但會回報是否有任何候選值命中
// 呼叫端可據此決定要不要再嘗試其他來源 (例如使用者儲存的偏好語言)
func ResolveExplicit(candidates ...string) (string, bool) {
	for _, candidate := range candidates {
		for _, tag := range parseTags(candidate) {
			base, _ := tag.Base()
			if code := base.String(); supported[code] {
				return code, true
			}
		}
	}
	return "", false
}

// parseTags 解析單一語言標籤或帶 q 值的完整 Accept-Language 標頭，
// 回傳依偏好排序的語言標籤
func parseTags(candidate string) []language.Tag {
	if candidate == "" {
		return nil
	}
	tags, _, err := language.ParseAcceptLanguage(candidate)
	if err != nil {
		return nil
	}
	return tags
}
