package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/ports"
)

// Mask replaces prop values whose key matches a PII pattern.
const Mask = "***"

type piiMiddleware struct {
	next     ports.PageStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks component and decorator
// prop values (for example default values or API tokens embedded in a
// blueprint) whose keys match the patterns. The caller's page is untouched.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.PageStore) ports.PageStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, page *domain.Page) error {
	cloned := page.Clone()
	if cloned.Root != nil {
		cloned.Root.Walk(func(n *domain.Node) bool {
			maskMap(n.Props, m.patterns)
			maskMap(n.DecoratorProps, m.patterns)
			return true
		})
	}
	return m.next.Save(ctx, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, pageID string) (*domain.Page, error) {
	return m.next.Load(ctx, pageID)
}

func (m *piiMiddleware) Delete(ctx context.Context, pageID string) error {
	return m.next.Delete(ctx, pageID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				break
			}
		}
		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
