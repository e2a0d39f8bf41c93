package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/justel/pkg/diag"
)

func TestNumberedProvisions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "introduced by a colon",
			text: "Pour l'application du présent décret, on entend par : 1° ministre : le ministre compétent; 2° administration : le service public.",
			want: []string{"ministre: le ministre compétent", "administration: le service public."},
		},
		{
			name: "citation fragment is not split",
			text: "Conformément à l'article 2, 1° et à l'article 3 : 1° premier point; 2° second point.",
			want: []string{"premier point", "second point."},
		},
		{
			name: "citation text is skipped",
			text: "Voir : 1° En vigueur le 2001-01-01; 2° autre chose utile.",
			want: []string{"autre chose utile."},
		},
		{
			name: "stops at the next sentence",
			text: "Sont exclus : 1° les biens meubles. Le Gouvernement fixe la liste.",
			want: []string{"les biens meubles."},
		},
		{
			name: "footnote markers are cleaned",
			text: "Sont visés : 1° les [1 routes régionales]1; 2° les voies.",
			want: []string{"les routes régionales", "les voies."},
		},
		{
			name: "no list introduction",
			text: "Le 1° du présent article est abrogé.",
			want: nil,
		},
	}

	p := NewProvisionExtractor(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := p.footnotes.References("1", tt.text)
			var got []string
			for _, provision := range p.NumberedProvisions("1", tt.text, refs) {
				got = append(got, provision.Text)
				assert.NotNil(t, provision.SubItems)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumberedProvisionsAmbiguousMarker(t *testing.T) {
	collector := diag.NewCollector(nil)
	p := NewProvisionExtractor(nil, collector)

	assert.Empty(t, p.NumberedProvisions("7", "Selon le 3° alinéa : rien.", nil))
	assert.Equal(t, 1, collector.Count(diag.CodeProvisionAmbiguous))
}

func TestNumberedProvisionsIterationLimit(t *testing.T) {
	collector := diag.NewCollector(nil)
	p := NewProvisionExtractor(nil, collector)

	var sb strings.Builder
	sb.WriteString("Liste :")
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&sb, " %d° élément numéro %d;", i, i)
	}

	provisions := p.NumberedProvisions("3", sb.String(), nil)
	require.Len(t, provisions, maxProvisionPairs)
	assert.Equal(t, "20°", provisions[19].Number)
	assert.Equal(t, 1, collector.Count(diag.CodeProvisionIterationLimit))
}

func TestHyphenatedItems(t *testing.T) {
	p := NewProvisionExtractor(nil, nil)

	items := p.HyphenatedItems(`Sont visés : \- les communes; \- les provinces.`, nil)
	require.Len(t, items, 2)
	assert.Equal(t, "les communes", items[0].Text)
	assert.Equal(t, "les provinces.", items[1].Text)

	assert.Empty(t, p.HyphenatedItems("Sans liste - ici.", nil))
	assert.Empty(t, p.HyphenatedItems("Liste : - a; - b.", nil))
}

func TestRuneWindows(t *testing.T) {
	assert.Equal(t, "éé", lastRunes("aéé", 2))
	assert.Equal(t, "aé", firstRunes("aéé", 2))
	assert.Equal(t, "ab", lastRunes("ab", 5))
}
