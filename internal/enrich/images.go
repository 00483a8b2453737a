package enrich

import "strings"

// ImageRef is one markdown image reference "![alt](url)".
type ImageRef struct {
	Alt string
	URL string
}

// FindImageRefs scans text for markdown image references in first-to-last
// order. Malformed references (unterminated brackets) are skipped.
func FindImageRefs(text string) []ImageRef {
	var refs []ImageRef
	for i := 0; i+1 < len(text); {
		if text[i] != '!' || text[i+1] != '[' {
			i++
			continue
		}
		altEnd := strings.IndexByte(text[i+2:], ']')
		if altEnd < 0 {
			break
		}
		altEnd += i + 2
		if altEnd+1 >= len(text) || text[altEnd+1] != '(' {
			i = altEnd + 1
			continue
		}
		urlEnd := strings.IndexByte(text[altEnd+2:], ')')
		if urlEnd < 0 {
			break
		}
		urlEnd += altEnd + 2
		refs = append(refs, ImageRef{
			Alt: text[i+2 : altEnd],
			URL: strings.TrimSpace(text[altEnd+2 : urlEnd]),
		})
		i = urlEnd + 1
	}
	return refs
}

// distinctURLs returns the URLs of refs with duplicates removed, keeping
// first-occurrence order.
func distinctURLs(refs []ImageRef) []string {
	seen := make(map[string]struct{}, len(refs))
	var urls []string
	for _, ref := range refs {
		if ref.URL == "" {
			continue
		}
		if _, ok := seen[ref.URL]; ok {
			continue
		}
		seen[ref.URL] = struct{}{}
		urls = append(urls, ref.URL)
	}
	return urls
}

// substituteURL replaces the URL of every image reference pointing at url with
// the platform media handle, keeping the reference inline.
func substituteURL(text, url, handle string) string {
	return replaceImageTargets(text, url, func(alt string) string {
		return "![" + alt + "](" + handle + ")"
	})
}

// linkifyURL rewrites every image reference pointing at url into plain link
// form, dropping the inline-render marker.
func linkifyURL(text, url string) string {
	return replaceImageTargets(text, url, func(alt string) string {
		return "[" + alt + "](" + url + ")"
	})
}

func replaceImageTargets(text, url string, render func(alt string) string) string {
	var b strings.Builder
	for i := 0; i < len(text); {
		if i+1 < len(text) && text[i] == '!' && text[i+1] == '[' {
			altEnd := strings.IndexByte(text[i+2:], ']')
			if altEnd >= 0 {
				altEnd += i + 2
				if altEnd+1 < len(text) && text[altEnd+1] == '(' {
					urlEnd := strings.IndexByte(text[altEnd+2:], ')')
					if urlEnd >= 0 {
						urlEnd += altEnd + 2
						if strings.TrimSpace(text[altEnd+2:urlEnd]) == url {
							b.WriteString(render(text[i+2 : altEnd]))
							i = urlEnd + 1
							continue
						}
						b.WriteString(text[i : urlEnd+1])
						i = urlEnd + 1
						continue
					}
				}
			}
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}
