package errors

import (
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "svelte", false},
		{"valid with dash", "svelte-check", false},
		{"valid scoped", "@sveltejs/kit", false},
		{"valid mixed case", "@SvelteJS/Kit", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"path traversal ..", "foo/../bar", true},
		{"path traversal //", "foo//bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"key separator", "repo:x", true},
		{"space", "my package", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNpmPackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "svelte", false},
		{"scoped", "@sveltejs/vite-plugin-svelte", false},
		{"with tilde", "~package", false},

		{"empty", "", true},
		{"uppercase", "Svelte", true},
		{"starts with dot", ".package", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNpmPackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNpmPackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestParseRepoRef(t *testing.T) {
	tests := []struct {
		input     string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"sveltejs/kit", "sveltejs", "kit", false},
		{"https://github.com/sveltejs/svelte", "sveltejs", "svelte", false},
		{"sveltejs/kit/tree/main", "sveltejs", "kit", false},
		{"sveltejs", "", "", true},
		{"-bad/repo", "", "", true},
		{"owner/", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			owner, repo, err := ParseRepoRef(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRepoRef(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !Is(err, ErrCodeInvalidRepo) {
					t.Errorf("ParseRepoRef(%q) returned wrong error code: %v", tt.input, err)
				}
				return
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("ParseRepoRef(%q) = %s/%s, want %s/%s", tt.input, owner, repo, tt.wantOwner, tt.wantRepo)
			}
		})
	}
}

func TestValidateItemNumber(t *testing.T) {
	if n, err := ValidateItemNumber("42"); err != nil || n != 42 {
		t.Errorf("ValidateItemNumber(42) = %d, %v", n, err)
	}
	for _, bad := range []string{"", "0", "-3", "abc"} {
		if _, err := ValidateItemNumber(bad); !Is(err, ErrCodeInvalidItem) {
			t.Errorf("ValidateItemNumber(%q) error = %v, want INVALID_ITEM", bad, err)
		}
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidPackage,
		ErrCodeInvalidRepo,
		ErrCodeInvalidItem,
		ErrCodeNotFound,
		ErrCodePackageNotFound,
		ErrCodeRepositoryNotFound,
		ErrCodeItemNotFound,
		ErrCodeNetwork,
		ErrCodeRateLimited,
		ErrCodeUnauthorized,
		ErrCodeForbidden,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
