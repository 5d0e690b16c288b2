package names_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skindex/skindex/internal/market"
	"github.com/skindex/skindex/internal/names"
)

func ptr[T any](v T) *T { return &v }

func TestCandidates_NoPins(t *testing.T) {
	t.Parallel()

	got := names.Candidates("awp printstream", nil, nil, nil)

	// 2 bases x 2 souvenir x 2 stattrak x 6 wears.
	assert.Len(t, got, 48)

	// Most specific ordering: plain base, no prefixes, no wear first.
	assert.Equal(t, "AWP Printstream", got[0])
	assert.Equal(t, "AWP Printstream (Factory New)", got[1])

	assert.Contains(t, got, "AWP | Printstream")
	assert.Contains(t, got, "AWP | Printstream (Field-Tested)")
	assert.Contains(t, got, "StatTrak™ AWP | Printstream (Minimal Wear)")
	assert.Contains(t, got, "Souvenir AWP | Printstream (Battle-Scarred)")
	assert.Contains(t, got, "Souvenir StatTrak™ AWP Printstream")
}

func TestCandidates_PinnedAxes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		text        string
		wear        *market.Wear
		statTrak    *bool
		souvenir    *bool
		wantLen     int
		wantContain []string
		wantAbsent  []string
	}{
		{
			name:     "pinned wear collapses wear axis",
			text:     "ak-47 redline",
			wear:     ptr(market.WearFieldTested),
			wantLen:  8, // 2 bases x 2 x 2 x 1 wear
			wantContain: []string{
				"AK-47 | Redline (Field-Tested)",
				"StatTrak™ AK-47 | Redline (Field-Tested)",
			},
			wantAbsent: []string{
				"AK-47 | Redline",
				"AK-47 | Redline (Factory New)",
			},
		},
		{
			name:     "stattrak true pins the prefix",
			text:     "ak-47 redline",
			statTrak: ptr(true),
			wantLen:  24, // 2 bases x 2 souvenir x 1 x 6 wears
			wantContain: []string{
				"StatTrak™ AK-47 | Redline",
				"Souvenir StatTrak™ AK-47 | Redline (Factory New)",
			},
			wantAbsent: []string{"AK-47 | Redline"},
		},
		{
			name:     "stattrak false drops the prefix entirely",
			text:     "ak-47 redline",
			statTrak: ptr(false),
			souvenir: ptr(false),
			wantLen:  12, // 2 bases x 1 x 1 x 6 wears
			wantContain: []string{
				"AK-47 | Redline",
				"AK-47 | Redline (Battle-Scarred)",
			},
			wantAbsent: []string{
				"StatTrak™ AK-47 | Redline",
				"Souvenir AK-47 | Redline",
			},
		},
		{
			name:     "all axes pinned yields a single name",
			text:     "awp asiimov",
			wear:     ptr(market.WearBattleScarred),
			statTrak: ptr(true),
			souvenir: ptr(false),
			wantLen:  2, // still two bases
			wantContain: []string{
				"StatTrak™ AWP Asiimov (Battle-Scarred)",
				"StatTrak™ AWP | Asiimov (Battle-Scarred)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := names.Candidates(tt.text, tt.wear, tt.statTrak, tt.souvenir)
			assert.Len(t, got, tt.wantLen)
			for _, want := range tt.wantContain {
				assert.Contains(t, got, want)
			}
			for _, absent := range tt.wantAbsent {
				assert.NotContains(t, got, absent)
			}
		})
	}
}

func TestCandidates_TextAlreadyPiped(t *testing.T) {
	t.Parallel()

	got := names.Candidates("awp | printstream", nil, ptr(false), ptr(false))

	// A pipe in the query means the caller already knows the catalog split;
	// no plain base is synthesized.
	require.Len(t, got, 6)
	assert.Equal(t, "AWP | Printstream", got[0])
	assert.Equal(t, "AWP | Printstream (Factory New)", got[1])
}

func TestCandidates_EmbeddedWearAnnotation(t *testing.T) {
	t.Parallel()

	// A wear already written into the text is stripped, not doubled.
	got := names.Candidates("awp asiimov (field-tested)", nil, ptr(false), ptr(false))

	assert.Contains(t, got, "AWP Asiimov (Factory New)")
	assert.Contains(t, got, "AWP | Asiimov (Field-Tested)")
	for _, name := range got {
		assert.NotContains(t, name, "(Field-Tested) (")
	}
}

func TestCandidates_WordCasing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want string
	}{
		{text: "awp printstream", want: "AWP | Printstream"},
		{text: "AK-47 REDLINE", want: "AK-47 | Redline"},
		{text: "m4a1-s hyper beast", want: "M4A1-S | Hyper Beast"},
		{text: "usp-s kill confirmed", want: "USP-S | Kill Confirmed"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()

			got := names.Candidates(tt.text, nil, ptr(false), ptr(false))
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestCandidates_SingleWord(t *testing.T) {
	t.Parallel()

	got := names.Candidates("dragonlore", nil, ptr(false), ptr(false))

	// One word cannot be split into weapon | skin.
	require.Len(t, got, 6)
	assert.Equal(t, "Dragonlore", got[0])
}

func TestCandidates_EmptyText(t *testing.T) {
	t.Parallel()

	assert.Empty(t, names.Candidates("", nil, nil, nil))
	assert.Empty(t, names.Candidates("   ", nil, nil, nil))
	assert.Empty(t, names.Candidates("(field-tested)", nil, nil, nil))
}

func TestCandidates_Deduplicated(t *testing.T) {
	t.Parallel()

	got := names.Candidates("awp printstream", nil, nil, nil)

	seen := make(map[string]struct{}, len(got))
	for _, name := range got {
		_, dup := seen[name]
		require.False(t, dup, "duplicate candidate %q", name)
		seen[name] = struct{}{}
	}
}
