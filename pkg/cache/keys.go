package cache

import "strings"

// Key namespaces under a repository.
const (
	KindReleases     = "releases"
	KindDescriptions = "descriptions"
	KindIssues       = "issues"
	KindPulls        = "prs"
	KindDiscussions  = "discussions"
)

// Keyer builds cache keys. Every component derives its keys through a Keyer
// so deployments can share one durable store under different prefixes.
type Keyer interface {
	// RepoKey returns "repo:{owner}/{name}:{parts...}".
	RepoKey(owner, name string, parts ...string) string

	// OwnerKey returns "owner:{owner}:{parts...}".
	OwnerKey(owner string, parts ...string) string

	// PackageKey returns "package:{name}:{parts...}".
	PackageKey(name string, parts ...string) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) RepoKey(owner, name string, parts ...string) string {
	return join("repo:"+owner+"/"+name, parts)
}

func (DefaultKeyer) OwnerKey(owner string, parts ...string) string {
	return join("owner:"+owner, parts)
}

func (DefaultKeyer) PackageKey(name string, parts ...string) string {
	return join("package:"+name, parts)
}

func join(head string, parts []string) string {
	if len(parts) == 0 {
		return head
	}
	return head + ":" + strings.Join(parts, ":")
}

// ScopedKeyer wraps a Keyer with a prefix, e.g. to separate staging and
// production data in one Redis database.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. An empty prefix returns inner.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	if prefix == "" {
		return inner
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) RepoKey(owner, name string, parts ...string) string {
	return k.prefix + k.inner.RepoKey(owner, name, parts...)
}

func (k *ScopedKeyer) OwnerKey(owner string, parts ...string) string {
	return k.prefix + k.inner.OwnerKey(owner, parts...)
}

func (k *ScopedKeyer) PackageKey(name string, parts ...string) string {
	return k.prefix + k.inner.PackageKey(name, parts...)
}
