package recipes

import (
	"fmt"
	"strconv"
	"strings"

	m "reshape.dev/pkg/reshape/internal/model"
)

// VersionSource answers "what is the newest known version of an artifact".
// The pebble-backed artifact cache implements it; the scheduler itself never
// talks to the cache.
type VersionSource interface {
	LatestVersion(artifact string) (string, bool, error)
}

// UpgradeVersion rewrites dependency manifests: lines of the form
// "name version". When Version is set it is used verbatim; otherwise the
// version source is consulted for the newest known version.
type UpgradeVersion struct {
	m.BaseRecipe

	Artifact string
	Version  string
	FileGlob string

	Source VersionSource
}

// Name implements Recipe.
func (r *UpgradeVersion) Name() string { return "deps.upgradeVersion" }

// Description implements Recipe.
func (r *UpgradeVersion) Description() string {
	return "Upgrade a dependency's pinned version in manifest files."
}

// Validate implements Recipe.
func (r *UpgradeVersion) Validate(_ *m.ExecutionContext) m.ValidationResult {
	var problems []string

	if r.Artifact == "" {
		problems = append(problems, "artifact must not be empty")
	}

	if r.Version == "" && r.Source == nil {
		problems = append(problems, "either a target version or a version source is required")
	}

	if len(problems) > 0 {
		return m.ValidationInvalid(problems...)
	}

	return m.ValidationOK()
}

// SingleSourceApplicabilityTests implements Recipe: only manifests
// mentioning the artifact are visited.
func (r *UpgradeVersion) SingleSourceApplicabilityTests() []m.Visitor {
	return []m.Visitor{Contains(r.Artifact)}
}

// Visitor implements Recipe.
func (r *UpgradeVersion) Visitor() m.Visitor {
	return m.VisitorFunc(func(file m.SourceFile, _ *m.ExecutionContext) (m.SourceFile, error) {
		glob := r.FileGlob
		if glob == "" {
			glob = "**/deps.txt"
		}

		if !pathMatches(glob, file.Path()) {
			return file, nil
		}

		pt, ok := file.(*m.PlainText)
		if !ok {
			return file, nil
		}

		rewritten, err := r.rewriteManifest(pt.Text())
		if err != nil {
			return file, &m.RunError{Recipe: r.Name(), Cause: err}
		}

		return pt.WithText(rewritten), nil
	})
}

func (r *UpgradeVersion) rewriteManifest(text string) (string, error) {
	lines := strings.Split(text, "\n")

	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 2 || fields[0] != r.Artifact {
			continue
		}

		target, err := r.targetVersion(fields[1])
		if err != nil {
			return "", err
		}

		if target == "" || target == fields[1] {
			continue
		}

		lines[i] = fields[0] + " " + target
	}

	return strings.Join(lines, "\n"), nil
}

// targetVersion resolves the version to pin, never downgrading.
func (r *UpgradeVersion) targetVersion(current string) (string, error) {
	if r.Version != "" {
		if CompareVersions(r.Version, current) > 0 {
			return r.Version, nil
		}

		return "", nil
	}

	latest, found, err := r.Source.LatestVersion(r.Artifact)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", r.Artifact, err)
	}

	if !found || CompareVersions(latest, current) <= 0 {
		return "", nil
	}

	return latest, nil
}

// CompareVersions orders dotted numeric versions; non-numeric segments fall
// back to string comparison.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	for i := 0; i < len(as) || i < len(bs); i++ {
		var sa, sb string

		if i < len(as) {
			sa = as[i]
		}

		if i < len(bs) {
			sb = bs[i]
		}

		na, errA := strconv.Atoi(sa)
		nb, errB := strconv.Atoi(sb)

		switch {
		case errA == nil && errB == nil:
			if na != nb {
				if na > nb {
					return 1
				}

				return -1
			}
		default:
			if sa != sb {
				return strings.Compare(sa, sb)
			}
		}
	}

	return 0
}
