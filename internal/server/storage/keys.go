package storage

import (
	"path"
	"regexp"
	"strings"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// CleanFolder turns a client folder such as "/products/" into a key prefix
// without leading or trailing slashes. Dot segments are dropped.
func CleanFolder(folder string) string {
	var parts []string
	for _, p := range strings.Split(folder, "/") {
		p = unsafeName.ReplaceAllString(strings.TrimSpace(p), "-")
		if p == "" || p == "." || p == ".." {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "/")
}

// StoredName sanitizes fileName and, when unique is set, inserts suffix
// before the extension ("hoodie.webp" -> "hoodie_1a2b3c4d.webp").
func StoredName(fileName string, unique bool, suffix string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	name = unsafeName.ReplaceAllString(name, "-")
	if name == "" || name == "." || name == "/" || name == ".." {
		name = "asset"
	}
	if !unique {
		return name
	}
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + suffix + ext
}

// BuildKey joins the cleaned folder and the stored name.
func BuildKey(folder, name string) string {
	if f := CleanFolder(folder); f != "" {
		return f + "/" + name
	}
	return name
}
