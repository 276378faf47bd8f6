// Package i18n resolves user-facing strings from embedded YAML catalogues.
package i18n

import (
	"context"
	"embed"
	"fmt"
	"net/http"
	"path"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

// Fallback is used when neither the request nor the catalogue offers a better match.
var Fallback = language.English

type ctxKey struct{}

type Translator struct {
	supported  []language.Tag
	matcher    language.Matcher
	catalogues map[language.Tag]map[string]string
}

// New loads every catalogue under locales/. The fallback language is always listed first.
func New() (*Translator, error) {
	entries, err := locales.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}

	t := &Translator{
		supported:  []language.Tag{Fallback},
		catalogues: make(map[language.Tag]map[string]string),
	}

	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))

		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", e.Name(), err)
		}

		data, err := locales.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", e.Name(), err)
		}

		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("decode locale %s: %w", e.Name(), err)
		}

		flat := make(map[string]string)
		flatten("", tree, flat)
		t.catalogues[tag] = flat

		if tag != Fallback {
			t.supported = append(t.supported, tag)
		}
	}

	if _, ok := t.catalogues[Fallback]; !ok {
		return nil, fmt.Errorf("missing %s catalogue", Fallback)
	}

	t.matcher = language.NewMatcher(t.supported)

	return t, nil
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
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Negotiate picks the best supported language for an Accept-Language header value.
func (t *Translator) Negotiate(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Fallback
	}

	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return Fallback
	}

	return t.supported[idx]
}

// T returns the message for key in lang with {{name}} placeholders substituted.
// Unknown keys resolve through the fallback catalogue and finally to the key itself.
func (t *Translator) T(lang language.Tag, key string, params map[string]any) string {
	msg, ok := t.catalogues[lang][key]
	if !ok {
		msg, ok = t.catalogues[Fallback][key]
	}
	if !ok {
		msg = key
	}

	for name, value := range params {
		msg = strings.ReplaceAll(msg, "{{"+name+"}}", fmt.Sprint(value))
	}

	return msg
}

func WithLanguage(ctx context.Context, lang language.Tag) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

func LanguageFrom(ctx context.Context) language.Tag {
	if lang, ok := ctx.Value(ctxKey{}).(language.Tag); ok {
		return lang
	}

	return Fallback
}

// Middleware stores the negotiated request language in the request context.
func (t *Translator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := t.Negotiate(r.Header.Get("Accept-Language"))
		next.ServeHTTP(w, r.WithContext(WithLanguage(r.Context(), lang)))
	})
}
