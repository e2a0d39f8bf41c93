package citation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lawURL = "https://www.ejustice.just.fgov.be/cgi_loi/article.pl?numac=2004070837"

func TestTypeForPrefix(t *testing.T) {
	tests := []struct {
		prefix string
		want   CitationType
	}{
		{"", CitationTypeStandard},
		{"Inséré par", CitationTypeInsertion},
		{"Inséré pour la Région wallonne par", CitationTypeInsertion},
		{"Modifié par", CitationTypeModification},
		{"intitulé modifié par", CitationTypeModification},
		{"Abrogé par", CitationTypeAbrogation},
		{"Remplacé par", CitationTypeReplacement},
		{"Rectifié par", CitationTypeModification},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeForPrefix(tt.prefix))
		})
	}
}

func TestParserParse(t *testing.T) {
	p := NewParser(nil)
	text := "Texte <Modifié par LOI [2004-07-08/37](" + lawURL + "), art. 2bis, 003; En vigueur : 2004-09-01.> suite " +
		"<Abrogé par decret 2010-05-06/12; **En vigueur :** 2010-06-01>"

	citations, err := p.Parse(text)
	require.NoError(t, err)
	require.Len(t, citations, 2)

	first := citations[0]
	assert.Equal(t, CitationTypeModification, first.Type)
	assert.Equal(t, "Modifié par", first.Prefix)
	assert.Equal(t, "LOI", first.LawType)
	assert.Equal(t, "2004-07-08/37", first.DossierNumber)
	assert.Equal(t, "2004-07-08", first.DossierDate())
	assert.Equal(t, "2bis", first.ArticleNumber)
	assert.Equal(t, "2bis", first.RawArticle)
	assert.Equal(t, "003", first.SequenceNumber)
	assert.Equal(t, "2004-09-01", first.EffectiveDate)
	assert.Equal(t, lawURL, first.URL)
	assert.Equal(t, text[first.Span.Start:first.Span.End], first.FullText)
	assert.Equal(t, "<Modifié par, LOI 2004-07-08/37, art. 2bis, 003; En vigueur : 2004-09-01>", first.Display)

	second := citations[1]
	assert.Equal(t, CitationTypeAbrogation, second.Type)
	assert.Equal(t, "DECRET", second.LawType)
	assert.Equal(t, "2010-05-06/12", second.DossierNumber)
	assert.Equal(t, "2010-06-01", second.EffectiveDate)
	assert.Equal(t, "https://www.ejustice.just.fgov.be/cgi_loi/change_lg.pl?language=fr&la=F&table_name=loi&cn=2010050612", second.URL)
}

func TestParserFillsURLFromDossier(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		text string
		want string
	}{
		{"<LOI [2004-07-08/7], art. 1>", "cn=2004070807"},
		{"<Inséré par AR 1999-01-02/35; En vigueur : 1999-02-01>", "cn=1999010235"},
		{"<LOI [2004-07-08/37](" + lawURL + "), art. 1>", lawURL},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			c := p.ParseOne(tt.text)
			require.NotNil(t, c)
			assert.Contains(t, c.URL, tt.want)

			uri, err := p.ToURI(c)
			require.NoError(t, err)
			assert.Equal(t, c.URL, uri)
		})
	}
}

func TestParserParseEmpty(t *testing.T) {
	citations, err := NewParser(nil).Parse("Aucune citation ici.")
	require.NoError(t, err)
	assert.NotNil(t, citations)
	assert.Empty(t, citations)
}

func TestParserNormalize(t *testing.T) {
	p := NewParser(nil)

	assert.Equal(t, "<LOI 2004-07-08/37>", p.Normalize(&Citation{LawType: "LOI", DossierNumber: "2004-07-08/37"}))
	assert.Equal(t, "<LOI 2004-07-08/37; En vigueur : 2005-01-01>",
		p.Normalize(&Citation{LawType: "LOI", DossierNumber: "2004-07-08/37", EffectiveDate: "2005-01-01"}))
	assert.Equal(t, "<En vigueur : 2005-01-01>", p.Normalize(&Citation{EffectiveDate: "2005-01-01"}))
}

func TestParserToURI(t *testing.T) {
	p := NewParser(nil)

	uri, err := p.ToURI(&Citation{URL: lawURL})
	require.NoError(t, err)
	assert.Equal(t, lawURL, uri)

	uri, err = p.ToURI(&Citation{DossierNumber: "2004-07-08/7"})
	require.NoError(t, err)
	assert.Contains(t, uri, "cn=2004070807")

	_, err = p.ToURI(&Citation{FullText: "<LOI>"})
	assert.Error(t, err)
}

func TestParserParseHeader(t *testing.T) {
	p := NewParser(nil)
	text := "<Inséré par LOI [2004-07-08/37](" + lawURL + "), art. 3; En vigueur : 2004-09-01> Le texte."

	header := p.ParseHeader(text)
	require.NotNil(t, header)
	assert.Equal(t, []string{lawURL}, header.URLs)
	assert.Equal(t, "Inséré par LOI [2004-07-08/37]("+lawURL+"), art. 3; En vigueur : 2004-09-01", header.FullText)
	require.NotNil(t, header.Parsed)
	assert.Equal(t, CitationTypeInsertion, header.Parsed.Type)
	assert.Equal(t, "3", header.Parsed.ArticleNumber)

	assert.Nil(t, p.ParseHeader("Le texte <LOI [2004-07-08/37]>"))

	plain := p.ParseHeader("<abrogé> reste")
	require.NotNil(t, plain)
	assert.Equal(t, "abrogé", plain.FullText)
	assert.Empty(t, plain.URLs)
	assert.Nil(t, plain.Parsed)
}
