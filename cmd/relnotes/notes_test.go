package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleChangelog = `# Changelog

All notable changes to gantry are documented here.

## [Unreleased]

### Added
- Nothing yet.

## [0.1.0] - 2026-08-01

### Added
- Health-gated startup ordering.
- Named volumes under the state directory.

[Unreleased]: https://github.com/gantry-sh/gantry/compare/v0.1.0...HEAD
[0.1.0]: https://github.com/gantry-sh/gantry/releases/tag/v0.1.0
`

func TestParseNotes(t *testing.T) {
	notes, err := ParseNotes([]byte(sampleChangelog))
	require.NoError(t, err)

	require.Len(t, notes.Releases, 2)
	assert.Equal(t, "Unreleased", notes.Releases[0].Version)
	assert.Equal(t, "0.1.0", notes.Releases[1].Version)
	assert.Equal(t, "2026-08-01", notes.Releases[1].Date)
	assert.Contains(t, notes.Releases[1].Body, "Health-gated startup ordering.")
	assert.NotContains(t, notes.Releases[0].Body, "Health-gated")

	assert.Equal(t, "https://github.com/gantry-sh/gantry/releases/tag/v0.1.0", notes.Links["0.1.0"])
}

func TestFindToleratesVPrefix(t *testing.T) {
	notes, err := ParseNotes([]byte(sampleChangelog))
	require.NoError(t, err)

	release := notes.Find("v0.1.0")
	require.NotNil(t, release)
	assert.Equal(t, "0.1.0", release.Version)

	assert.Nil(t, notes.Find("9.9.9"))
}

func TestLatestSkipsUnreleased(t *testing.T) {
	notes, err := ParseNotes([]byte(sampleChangelog))
	require.NoError(t, err)

	release := notes.Latest()
	require.NotNil(t, release)
	assert.Equal(t, "0.1.0", release.Version)
}

func TestSplitHeading(t *testing.T) {
	testCases := []struct {
		in, version, date string
	}{
		{"[1.2.0] - 2026-01-15", "1.2.0", "2026-01-15"},
		{"[Unreleased]", "Unreleased", ""},
		{"1.2.0 - 2026-01-15", "1.2.0", "2026-01-15"},
		{"1.2.0", "1.2.0", ""},
	}
	for _, tc := range testCases {
		version, date := splitHeading(tc.in)
		assert.Equal(t, tc.version, version, tc.in)
		assert.Equal(t, tc.date, date, tc.in)
	}
}
