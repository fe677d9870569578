package assets

import (
	"html/template"

	httpassets "github.com/viveconecta/admin-ui/internal/http/assets"
)

// Funcs returns the "asset" helper resolving logical names to fingerprinted URLs.
func Funcs(resolver *httpassets.AssetResolver) template.FuncMap {
	return template.FuncMap{
		"asset": resolver.Resolve,
	}
}
