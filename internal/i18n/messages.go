// Package i18n localizes job progress lines. Message keys are the English
// format strings; other languages are registered in the catalog below.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Progress message keys.
const (
	MsgStart          = "START. URLs: %d"
	MsgURL            = "  [%d] %s"
	MsgRemoveWM       = "Remove WM: %s"
	MsgYes            = "YES"
	MsgNo             = "NO"
	MsgWMCustom       = "Watermark: using uploaded PNG"
	MsgWMDefault      = "Watermark: using default %s"
	MsgWMMissing      = "Watermark: %s not found, no logo will be applied"
	MsgWMInvalid      = "Watermark: cannot decode image (%s), no logo will be applied"
	MsgPage           = "[PAGE %d] %s"
	MsgPageError      = "  Page download error: %s"
	MsgHTMLReceived   = "  HTML received, parsing images..."
	MsgImagesFound    = "  Images after filtering: %d"
	MsgFolder         = "  Folder: %s"
	MsgSaving         = "  Saving files: %d"
	MsgImage          = "    [img %d/%d] %s"
	MsgImageError     = "      Image download error: %s"
	MsgImageProcError = "      Image processing error: %s"
	MsgEnd            = "=== END ==="
	MsgFatal          = "FATAL: %s"
)

var russian = map[string]string{
	MsgStart:          "СТАРТ. URL: %d",
	MsgURL:            "  [%d] %s",
	MsgRemoveWM:       "Удаление водяного знака: %s",
	MsgYes:            "ДА",
	MsgNo:             "НЕТ",
	MsgWMCustom:       "Водяной знак: используем пользовательский PNG",
	MsgWMDefault:      "Водяной знак: используем стандартный %s",
	MsgWMMissing:      "Водяной знак: %s не найден, логотип не будет наложен",
	MsgWMInvalid:      "Водяной знак: не удалось прочитать изображение (%s), логотип не будет наложен",
	MsgPage:           "[СТРАНИЦА %d] %s",
	MsgPageError:      "  Ошибка загрузки страницы: %s",
	MsgHTMLReceived:   "  HTML получен, парсим изображения...",
	MsgImagesFound:    "  После фильтров изображений: %d",
	MsgFolder:         "  Папка: %s",
	MsgSaving:         "  Сохраняем файлов: %d",
	MsgImage:          "    [img %d/%d] %s",
	MsgImageError:     "      Ошибка загрузки картинки: %s",
	MsgImageProcError: "      Ошибка обработки картинки: %s",
	MsgEnd:            "=== КОНЕЦ ===",
	MsgFatal:          "ОШИБКА: %s",
}

// Supported lists the languages with a catalog, default first.
var Supported = []language.Tag{language.English, language.Russian}

var (
	cat     = buildCatalog()
	matcher = language.NewMatcher(Supported)
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range russian {
		if err := b.SetString(language.Russian, key, msg); err != nil {
			panic(err)
		}
	}
	return b
}

// Match picks the best supported language for the given preferences, which
// may be plain tags ("ru") or Accept-Language values ("ru-RU,en;q=0.8").
// ok is false when no preference matched a supported language.
func Match(prefs ...string) (tag language.Tag, ok bool) {
	var tags []language.Tag
	for _, p := range prefs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return language.English, false
	}
	matched, _, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return language.English, false
	}
	base, _ := matched.Base()
	return language.Make(base.String()), true
}

// ForCountry maps an ISO country code to the language its visitors most
// likely read. ok is false for countries without a preference.
func ForCountry(country string) (language.Tag, bool) {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "RU", "UA", "BY", "KZ":
		return language.Russian, true
	}
	return language.English, false
}

// Printer returns a message printer for locale, defaulting to English.
func Printer(locale string) *message.Printer {
	tag, ok := Match(locale)
	if !ok {
		tag = language.English
	}
	return message.NewPrinter(tag, message.Catalog(cat))
}
