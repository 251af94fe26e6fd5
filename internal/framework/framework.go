// Package framework detects the project's frontend framework from
// package.json and seeds the public-prefix defaults before a scan. The
// scan core never reads package.json itself.
package framework

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// frameworks maps a package.json dependency key to the framework tag, in
// detection precedence order.
var frameworks = []struct {
	dep string
	tag string
}{
	{"next", "next"},
	{"nuxt", "nuxt"},
	{"@sveltejs/kit", "sveltekit"},
	{"astro", "astro"},
	{"gatsby", "gatsby"},
	{"react-scripts", "cra"},
	{"vite", "vite"},
}

var publicPrefixes = map[string][]string{
	"next":      {"NEXT_PUBLIC_"},
	"nuxt":      {"NUXT_PUBLIC_", "NUXT_ENV_"},
	"sveltekit": {"PUBLIC_"},
	"astro":     {"PUBLIC_"},
	"gatsby":    {"GATSBY_"},
	"cra":       {"REACT_APP_"},
	"vite":      {"VITE_"},
}

// Detect inspects root/package.json and returns the framework tag. The
// empty tag means no framework was recognized (or no package.json exists);
// that is not an error.
func Detect(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return ""
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	for _, fw := range frameworks {
		if _, ok := pkg.Dependencies[fw.dep]; ok {
			return fw.tag
		}
		if _, ok := pkg.DevDependencies[fw.dep]; ok {
			return fw.tag
		}
	}
	return ""
}

// PublicPrefixes returns the client-exposure prefixes for a framework tag.
func PublicPrefixes(tag string) []string {
	return publicPrefixes[tag]
}
