package errors

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ValidatePackageName validates a package name received from a client.
// It rejects names that could be used for path traversal or key injection.
// Case is not checked: package lookups are case-insensitive.
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 214 {
		return New(ErrCodeInvalidPackage, "package name too long (max 214 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters")
		}
	}

	for _, pattern := range []string{"..", "//", "\\", ":"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// npmPackageNameRegex matches valid npm package names.
var npmPackageNameRegex = regexp.MustCompile(`^(@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)

// ValidateNpmPackageName validates an npm package name as published to the registry.
func ValidateNpmPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}

	if strings.ToLower(name) != name {
		return New(ErrCodeInvalidPackage, "npm package names must be lowercase: %q", name)
	}

	if !npmPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid npm package name: %q", name)
	}

	return nil
}

// GitHub naming rules for owners and repositories.
var (
	validOwner = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,38}$`)
	validRepo  = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)
)

// ValidateRepoRef validates a GitHub owner and repository name pair.
func ValidateRepoRef(owner, repo string) error {
	if owner == "" {
		return New(ErrCodeInvalidRepo, "owner is required")
	}
	if !validOwner.MatchString(owner) {
		return New(ErrCodeInvalidRepo, "invalid owner %q: must be 1-39 alphanumeric characters or hyphens", owner)
	}
	if repo == "" {
		return New(ErrCodeInvalidRepo, "repository is required for owner %q; use owner/repo", owner)
	}
	if !validRepo.MatchString(repo) {
		return New(ErrCodeInvalidRepo, "invalid repository %q", repo)
	}
	return nil
}

// ParseRepoRef parses an "owner/repo" string and validates both parts.
// An organization alone is rejected with guidance to include the repository.
func ParseRepoRef(ref string) (owner, repo string, err error) {
	ref = strings.Trim(strings.TrimPrefix(strings.TrimPrefix(ref, "https://"), "github.com/"), "/")
	owner, repo, ok := strings.Cut(ref, "/")
	if !ok {
		return "", "", New(ErrCodeInvalidRepo, "%q looks like an organization; use owner/repo", ref)
	}
	repo, _, _ = strings.Cut(repo, "/")
	if err := ValidateRepoRef(owner, repo); err != nil {
		return "", "", err
	}
	return owner, repo, nil
}

// ValidateItemNumber parses an issue, pull request or discussion number.
func ValidateItemNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, New(ErrCodeInvalidItem, "invalid item number %q", s)
	}
	return n, nil
}
