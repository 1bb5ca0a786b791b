package scenic

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Driver backend names.
const (
	DriverChrome = "chrome"
)

// Suite file markers. A suite directory contains any number of files
// matching exactly one of these; everything else is ignored.
const (
	MarkerData    = ".data.scn"
	MarkerWidget  = ".widget.scn"
	MarkerFeature = ".feature.scn"
)

// LinkSuffix is the reserved element-name suffix. Elements whose logical
// name ends with it are additionally exposed as zero-argument click steps.
const LinkSuffix = "Link"

// WidgetNameFromFile derives a widget's registry name from its file name.
// The stem before the marker is converted to PascalCase and suffixed with
// "Widget" unless it already carries it:
//
//	clock.widget.scn       -> ClockWidget
//	submit-form.widget.scn -> SubmitFormWidget
//	nav_bar.widget.scn     -> NavBarWidget
func WidgetNameFromFile(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), MarkerWidget)

	name := pascalCase(stem)
	if !strings.HasSuffix(name, "Widget") {
		name += "Widget"
	}

	return name
}

// pascalCase converts kebab-case, snake_case or dotted stems to PascalCase.
func pascalCase(s string) string {
	var b strings.Builder

	upper := true

	for _, r := range s {
		switch {
		case r == '-' || r == '_' || r == '.' || r == ' ':
			upper = true
		case upper:
			b.WriteRune(unicode.ToUpper(r))

			upper = false
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}
