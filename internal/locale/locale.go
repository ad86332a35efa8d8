package locale

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// Catalog holds the localized strings the shell needs during bootstrap and
// for its chrome. The full UI carries its own translations.
type Catalog struct {
	Tag language.Tag

	AppMenuLabel        string
	QuitLabel           string
	ShowWindowLabel     string
	BackupNowLabel      string
	BootstrapErrorTitle string
	BootstrapErrorBody  string
}

var english = Catalog{
	Tag:                 language.English,
	AppMenuLabel:        "Inkwell",
	QuitLabel:           "Quit",
	ShowWindowLabel:     "Show Inkwell",
	BackupNowLabel:      "Back Up Now",
	BootstrapErrorTitle: "Inkwell could not start",
	BootstrapErrorBody:  "The local extensions server failed to start. Inkwell cannot run without it.",
}

var catalogs = map[language.Tag]Catalog{
	language.English: english,
	language.German: {
		Tag:                 language.German,
		AppMenuLabel:        "Inkwell",
		QuitLabel:           "Beenden",
		ShowWindowLabel:     "Inkwell anzeigen",
		BackupNowLabel:      "Jetzt sichern",
		BootstrapErrorTitle: "Inkwell konnte nicht gestartet werden",
		BootstrapErrorBody:  "Der lokale Erweiterungsserver konnte nicht gestartet werden. Inkwell kann ohne ihn nicht laufen.",
	},
	language.French: {
		Tag:                 language.French,
		AppMenuLabel:        "Inkwell",
		QuitLabel:           "Quitter",
		ShowWindowLabel:     "Afficher Inkwell",
		BackupNowLabel:      "Sauvegarder maintenant",
		BootstrapErrorTitle: "Inkwell n'a pas pu démarrer",
		BootstrapErrorBody:  "Le serveur d'extensions local n'a pas pu démarrer. Inkwell ne peut pas fonctionner sans lui.",
	},
}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.German,
	language.French,
})

// Load matches osLocale (a BCP 47 tag or POSIX locale such as "de_DE.UTF-8")
// against the embedded catalogs, falling back to English.
func Load(osLocale string) Catalog {
	normalized := normalizePosix(osLocale)
	tag, err := language.Parse(normalized)
	if err != nil {
		return english
	}
	_, index, _ := matcher.Match(tag)
	switch index {
	case 1:
		return catalogs[language.German]
	case 2:
		return catalogs[language.French]
	default:
		return english
	}
}

// Detect reads the locale from the environment in precedence order.
func Detect() Catalog {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" && value != "C" && value != "POSIX" {
			return Load(value)
		}
	}
	return english
}

func normalizePosix(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.IndexAny(value, ".@"); idx >= 0 {
		value = value[:idx]
	}
	return strings.ReplaceAll(value, "_", "-")
}
