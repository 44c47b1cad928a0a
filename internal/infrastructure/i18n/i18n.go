// Package i18n holds the storefront's UI strings and status labels.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Bundle is a set of flattened translation dictionaries, one per language
type Bundle struct {
	dict     map[string]map[string]string
	fallback string
	langs    []string
	matcher  language.Matcher
}

// Load reads the embedded locales. fallback must be one of them.
func Load(fallback string) (*Bundle, error) {
	sub, err := fs.Sub(localeFS, "locales")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub, fallback)
}

// LoadFS reads every <lang>.yaml at the root of fsys
func LoadFS(fsys fs.FS, fallback string) (*Bundle, error) {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}
	b := &Bundle{dict: map[string]map[string]string{}, fallback: fallback}
	for _, name := range files {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", name, err)
		}
		var tree map[string]any
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", name, err)
		}
		lang := strings.TrimSuffix(path.Base(name), ".yaml")
		flat := make(map[string]string)
		flatten("", tree, flat)
		b.dict[lang] = flat
	}
	if _, ok := b.dict[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %s not loaded", fallback)
	}

	// The fallback goes first so the matcher picks it when nothing fits.
	b.langs = append(b.langs, fallback)
	for lang := range b.dict {
		if lang != fallback {
			b.langs = append(b.langs, lang)
		}
	}
	sort.Strings(b.langs[1:])
	tags := make([]language.Tag, 0, len(b.langs))
	for _, lang := range b.langs {
		tags = append(tags, language.Make(lang))
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Languages returns the loaded language codes, fallback first
func (b *Bundle) Languages() []string {
	return append([]string(nil), b.langs...)
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// Has reports whether key is translated in the fallback language
func (b *Bundle) Has(key string) bool {
	_, ok := b.dict[b.fallback][key]
	return ok
}

// T returns the translation for key in lang, falling back to the default
// language and finally the key itself. args are name/value pairs that
// replace {name} placeholders.
func (b *Bundle) T(lang, key string, args ...string) string {
	msg, ok := b.lookup(lang, key)
	if !ok {
		return key
	}
	if len(args) >= 2 {
		pairs := make([]string, 0, len(args))
		for i := 0; i+1 < len(args); i += 2 {
			pairs = append(pairs, "{"+args[i]+"}", args[i+1])
		}
		msg = strings.NewReplacer(pairs...).Replace(msg)
	}
	return msg
}

// Error returns the message for a domain error code, or def when the code
// has no translation.
func (b *Bundle) Error(lang, code, def string) string {
	if msg, ok := b.lookup(lang, "error."+code); ok {
		return msg
	}
	return def
}

func (b *Bundle) lookup(lang, key string) (string, bool) {
	if m, ok := b.dict[lang]; ok {
		if v, ok := m[key]; ok {
			return v, true
		}
	}
	v, ok := b.dict[b.fallback][key]
	return v, ok
}

// Resolve picks the best supported language for an Accept-Language header
func (b *Bundle) Resolve(acceptLang string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.fallback
	}
	return b.langs[idx]
}

// Supports reports whether lang has its own dictionary
func (b *Bundle) Supports(lang string) bool {
	_, ok := b.dict[lang]
	return ok
}
