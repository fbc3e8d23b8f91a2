package hydrate

import (
	"strings"
	"unicode"
)

// StripAttributePrefix returns a PreHook that rewrites attribute names carrying
// prefix into plain lower camel case keys. Both the markup form
// ("data-product-image-url") and the dataset form ("productImageUrl") map to
// "imageUrl". Keys that do not carry the prefix are left untouched, and a
// prefixed key never overwrites an explicit plain key.
func StripAttributePrefix(prefix string) PreHook {
	dashed := "data-" + strings.Trim(prefix, "-") + "-"
	camel := toCamel(strings.Trim(prefix, "-"))

	return func(_ Context, payload map[string]any) (map[string]any, error) {
		out := make(map[string]any, len(payload))
		renamed := map[string]any{}
		for key, value := range payload {
			switch {
			case strings.HasPrefix(key, dashed):
				renamed[toCamel(strings.TrimPrefix(key, dashed))] = value
			case camel != "" && len(key) > len(camel) && strings.HasPrefix(key, camel) && unicode.IsUpper(rune(key[len(camel)])):
				rest := key[len(camel):]
				renamed[strings.ToLower(rest[:1])+rest[1:]] = value
			default:
				out[key] = value
			}
		}
		for key, value := range renamed {
			if _, exists := out[key]; !exists {
				out[key] = value
			}
		}
		return out, nil
	}
}

// TrimStrings is a PreHook that trims surrounding whitespace from every string
// value.
func TrimStrings(_ Context, payload map[string]any) (map[string]any, error) {
	for key, value := range payload {
		if text, ok := value.(string); ok {
			payload[key] = strings.TrimSpace(text)
		}
	}
	return payload, nil
}

func toCamel(dashed string) string {
	parts := strings.Split(dashed, "-")
	var b strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			b.WriteString(strings.ToLower(part))
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(strings.ToLower(part[1:]))
	}
	return b.String()
}
