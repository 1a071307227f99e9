package failure

import "strings"

// serverParamAliases maps internal task-service configuration keys to the
// user-facing flag aliases gridctl exposes for them. The service reports
// validation failures using its internal key names; the translator
// substitutes the names users can actually act on.
var serverParamAliases = map[string][]string{
	"Task.activity":           {"--activity"},
	"Task.priority":           {"--priority"},
	"Task.maxRuntimeMinutes":  {"--max-runtime"},
	"Task.maxMemoryMB":        {"--max-memory"},
	"Data.inputDataset":       {"--input-dataset"},
	"Data.splitAlgorithm":     {"--split-by"},
	"Data.unitsPerJob":        {"--units-per-job"},
	"Site.whitelist":          {"--site-allow"},
	"Site.blacklist":          {"--site-deny"},
	"User.voGroup":            {"--vo-group", "--vo-role"},
	"Transfer.outputLocation": {"--output-location"},
}

// ExpandParamAliases substitutes internal configuration-key names with their
// user-facing flag aliases wherever a name appears quoted inside the text.
// Names that carry several aliases are expanded to the full alias list.
func ExpandParamAliases(text string) string {
	for internal, aliases := range serverParamAliases {
		quoted := "'" + internal + "'"
		if !strings.Contains(text, quoted) {
			continue
		}
		replacement := "'" + strings.Join(aliases, "'/'") + "'"
		text = strings.ReplaceAll(text, quoted, replacement)
	}
	return text
}
