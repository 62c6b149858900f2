package fetcher

import (
	"net/url"
	"strings"

	"github.com/miorlan/openapi-store/internal/yamlutil"
	"gopkg.in/yaml.v3"
)

// FindExternalReferences lists the distinct documents that $ref values in node
// point to, in document order. Fragments are dropped and relative locations
// are resolved against origin.
func FindExternalReferences(node *yaml.Node, origin string) []string {
	var urls []string
	seen := make(map[string]bool)
	yamlutil.Walk(node, func(n *yaml.Node) bool {
		ref, ok := yamlutil.RefValue(n)
		if !ok || ref == "" || strings.HasPrefix(ref, "#") {
			return true
		}
		location, _, _ := strings.Cut(ref, "#")
		abs := AbsoluteURL(origin, location)
		if !seen[abs] {
			seen[abs] = true
			urls = append(urls, abs)
		}
		return true
	})
	return urls
}

// AbsoluteURL resolves ref against the document it was found in.
//
//	AbsoluteURL("https://example.com/openapi.yaml", "components.yaml") // https://example.com/components.yaml
//	AbsoluteURL("/foobar/openapi.yaml", "components.yaml")             // /foobar/components.yaml
//	AbsoluteURL("/foobar/openapi.yaml", "/components.yaml")            // /components.yaml
func AbsoluteURL(origin, ref string) string {
	if origin == "" || hasScheme(ref) {
		return ref
	}
	if strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
		base, err := url.Parse(origin)
		if err != nil {
			return ref
		}
		rel, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return base.ResolveReference(rel).String()
	}
	if strings.HasPrefix(ref, "/") {
		return ref
	}
	return origin[:strings.LastIndex(origin, "/")+1] + ref
}

func hasScheme(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && u.Scheme != "" && len(u.Scheme) > 1
}
