package i18n

import "strings"

type Lang string

const (
	UZ Lang = "uz"
	RU Lang = "ru"
	EN Lang = "en"
)

func FromLanguageCode(code string) Lang {
	code = strings.ToLower(strings.TrimSpace(code))
	switch {
	case strings.HasPrefix(code, "uz"):
		return UZ
	case strings.HasPrefix(code, "ru"):
		return RU
	default:
		return EN
	}
}

func Parse(s string) Lang {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uz":
		return UZ
	case "ru":
		return RU
	case "en":
		return EN
	default:
		return EN
	}
}
