package changelog_test

import (
	"fmt"

	"github.com/matzehuels/releasehub/pkg/changelog"
)

func ExampleParse() {
	log := changelog.Parse("# Changelog\n\n## 1.1.0 (2024-02-01)\n### Fixed\n- a bug\n")

	for _, v := range log.Versions {
		fmt.Println(*v.Version, *v.Date, v.Parsed["Fixed"])
	}
	// Output: 1.1.0 2024-02-01 [- a bug]
}
