package pattern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleRuleTable(t *testing.T) {
	rules := Default().ArticleRules()
	require.Len(t, rules, 16)
	assert.Equal(t, "bracketed", rules[0].Name)
	assert.Equal(t, "lower-bracketed", rules[8].Name)
	assert.Contains(t, rules[8].Expression, `art\.`)
}

func TestMatchArticleHeader(t *testing.T) {
	m := Default()

	tests := []struct {
		name   string
		text   string
		number string
		rule   string
		rest   string
	}{
		{"bracketed", "**ARTICLE**[Art.] [1]. Texte", "1", "bracketed", " Texte"},
		{"plain keeps following space", "**ARTICLE**[Art.] 2. Le ministre", "2", "plain", " Le ministre"},
		{"plain keeps following capital", "**ARTICLE**[Art.] 3bis.Texte", "3bis", "plain", "Texte"},
		{"decimal", "**ARTICLE**[Art.] 1.2. Texte", "1.2", "plain", " Texte"},
		{"placeholder", "**ARTICLE**[Art.] A1. Texte", "A1", "placeholder", " Texte"},
		{"escaped ordinal", `**ARTICLE**[Art.] 1er\. Texte`, "1er", "escaped", " Texte"},
		{"unbracketed art", "**ARTICLE**Art. [5]. Texte", "5", "unbracketed-art", " Texte"},
		{"article bracketed", "**ARTICLE**Article [6]. Texte", "6", "article-bracketed", " Texte"},
		{"article escaped", `**ARTICLE**Article 7quater\. Texte`, "7quater", "article-escaped", " Texte"},
		{"malformed brace", "**ARTICLE**[}Art.] [8] Texte", "8", "malformed-brace", " Texte"},
		{"lowercase", "**ARTICLE**[art.] [9]. Texte", "9", "lower-bracketed", " Texte"},
		{"title marker", "**TITLE**[Art.] [4]. (REGION WALLONNE)", "4", "bracketed", " (REGION WALLONNE)"},
		{"regional number", "**ARTICLE**[Art.] [37 WALLONNE]. Texte", "37 WALLONNE", "bracketed", " Texte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, ok := m.MatchArticleHeader(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.number, header.Number)
			assert.Equal(t, tt.rule, header.Rule)
			assert.Equal(t, tt.rest, tt.text[header.End:])
			assert.Equal(t, tt.text[:header.End], header.Text)
		})
	}
}

func TestMatchArticleHeaderRejects(t *testing.T) {
	m := Default()

	for _, text := range []string{
		"Texte sans marqueur",
		"**ARTICLE** sans numéro",
		"**ARTICLE**[Art.] 1er. Texte",
		" **ARTICLE**[Art.] [1]. Texte",
	} {
		_, ok := m.MatchArticleHeader(text)
		assert.False(t, ok, text)
	}
}

func TestFindArticleHeaders(t *testing.T) {
	content := strings.Join([]string{
		"[3A] ## Texte [3B]",
		"**TITLE**[CHAPITRE Ier.] \\- Dispositions",
		"**ARTICLE**[Art.] [1]. Premier article.",
		"**ARTICLE** orphan marker",
		"**ARTICLE**[Art.] 2. Deuxième article.",
	}, "\n")

	headers := Default().FindArticleHeaders(content)
	require.Len(t, headers, 2)
	assert.Equal(t, "1", headers[0].Number)
	assert.Equal(t, "2", headers[1].Number)
	assert.Less(t, headers[0].End, headers[1].Start)
	assert.True(t, strings.HasPrefix(content[headers[1].End:], " Deuxième"))
}

func TestCleanUnmatchedBraces(t *testing.T) {
	assert.Equal(t, "5", CleanUnmatchedBraces("}5"))
	assert.Equal(t, "5", CleanUnmatchedBraces("5{"))
	assert.Equal(t, "{5}", CleanUnmatchedBraces("{5}"))
	assert.Equal(t, "", CleanUnmatchedBraces(""))
	assert.Equal(t, "CHAPITRE", CleanUnmatchedBraces("}CHAPITRE"))
}

func TestFindRegion(t *testing.T) {
	m := Default()

	tests := []struct {
		text      string
		spelling  string
		canonical string
	}{
		{"(Région wallonne) Le texte", "wallonne", RegionWallonne},
		{"(REGION FLAMANDE) Le texte", "FLAMANDE", RegionFlamande},
		{"texte (Région de Bruxelles-Capitale).", "de Bruxelles-Capitale", RegionBruxelles},
		{"(Région wallone)", "wallone", RegionWallonne},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			spelling, start, end, ok := m.FindRegion(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.spelling, spelling)
			assert.Equal(t, '(', rune(tt.text[start]))
			assert.Equal(t, ')', rune(tt.text[end-1]))

			canonical, ok := m.Regions().Canonical(spelling)
			require.True(t, ok)
			assert.Equal(t, tt.canonical, canonical)
		})
	}

	_, _, _, ok := m.FindRegion("Aucune mention régionale.")
	assert.False(t, ok)
}

func TestRegionTableUnmapped(t *testing.T) {
	table := Default().Regions()
	_, ok := table.Canonical("germanophone")
	assert.False(t, ok)
	assert.Equal(t, []string{RegionWallonne, RegionBruxelles, RegionFlamande}, table.Names())
}

func TestContainsRegion(t *testing.T) {
	m := Default()

	tests := []struct {
		text string
		want string
	}{
		{"4. (REGION WALLONNE)", RegionWallonne},
		{"3. (REGION WALLONE)", RegionWallonne},
		{"3. (REGION WALLON)", RegionWallonne},
		{"37 (Région flamande)", RegionFlamande},
		{"5. (REGION FLAMAND)", RegionFlamande},
		{"6. (REGION BRUXELLOISE)", RegionBruxelles},
		{"7. (REGION DE BRUXELLES-CAPITALE)", RegionBruxelles},
		{"8. (REGION GERMANOPHONE)", "GERMANOPHONE"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			name, ok := m.ContainsRegion(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, name)
		})
	}

	_, ok := m.ContainsRegion("37 WALLONNE")
	assert.False(t, ok)
}

func TestTokenizeBody(t *testing.T) {
	body := strings.Join([]string{
		"**TITLE**[CHAPITRE Ier.] \\- Dispositions générales",
		"",
		"**TITLE**[Art.] [4]. (REGION WALLONNE)",
		"**ANNEXE**[ANNEXE 1] Liste",
		"  **ARTICLE**[Art.] 1. Texte",
		"Texte libre",
	}, "\n")

	tokens := Default().TokenizeBody(body)
	require.Len(t, tokens, 5)

	assert.Equal(t, TokenHeading, tokens[0].Kind)
	assert.Equal(t, "CHAPITRE Ier.", tokens[0].TitleType)
	assert.Equal(t, "Dispositions générales", tokens[0].TitleContent)
	assert.Equal(t, 1, tokens[0].LineNumber)

	assert.Equal(t, TokenTitleArticle, tokens[1].Kind)
	assert.Equal(t, "4", tokens[1].Number)
	assert.Equal(t, "REGION WALLONNE", tokens[1].Region)
	assert.Equal(t, 3, tokens[1].LineNumber)

	assert.Equal(t, TokenAnnexe, tokens[2].Kind)
	assert.Equal(t, "ANNEXE 1", tokens[2].TitleType)

	assert.Equal(t, TokenArticle, tokens[3].Kind)
	assert.Equal(t, "1", tokens[3].Number)

	assert.Equal(t, TokenText, tokens[4].Kind)
	assert.Equal(t, "text", tokens[4].Kind.String())
}

func TestTokenizeTOC(t *testing.T) {
	toc := strings.Join([]string{
		"**TITLE**[TITRE I] \\- Généralités",
		"**TITLE**[CHAPITRE 2] [1 Champ d'application]1",
		"Art. 1-3",
		"**TITLE**[Art.] [4].",
		"**ANNEXE**[1]",
		"**TITLE**[Art.] \\- ignored",
	}, "\n")

	tokens := Default().TokenizeTOC(toc)
	require.Len(t, tokens, 6)

	assert.Equal(t, TokenHeading, tokens[0].Kind)
	assert.Equal(t, "Généralités", tokens[0].TitleContent)
	assert.Equal(t, TokenHeading, tokens[1].Kind)
	assert.Equal(t, "Champ d'application", tokens[1].TitleContent)
	assert.Equal(t, TokenArticle, tokens[2].Kind)
	assert.Equal(t, "1-3", tokens[2].Number)
	assert.Equal(t, TokenTitleArticle, tokens[3].Kind)
	assert.Equal(t, "4", tokens[3].Number)
	assert.Equal(t, TokenAnnexe, tokens[4].Kind)
	assert.Equal(t, TokenText, tokens[5].Kind)
}

func TestExtractRegion(t *testing.T) {
	content := "intro [2A] ## Table des matières [2B] toc **ARTICLE** body [3A] text"

	region, ok := ExtractRegion(content, "[2A] ## Table des matières [2B]", "[3A]", "**ARTICLE**")
	require.True(t, ok)
	assert.Equal(t, " toc ", region)

	region, ok = ExtractRegion(content, "[3A]")
	require.True(t, ok)
	assert.Equal(t, " text", region)

	_, ok = ExtractRegion(content, "[9A]")
	assert.False(t, ok)
}

func TestVocabularyMerge(t *testing.T) {
	base := DefaultVocabulary()
	extra := &Vocabulary{
		Name:          "extra",
		Regions:       []RegionAlias{{Canonical: "wallonne", Aliases: []string{"walloon"}}},
		DocumentTypes: map[string]string{"Loi": "LOI_SPECIALE"},
	}

	merged := base.Merge(extra)
	assert.Len(t, merged.Regions, 3)
	assert.Equal(t, "LOI_SPECIALE", merged.DocumentTypes["loi"])

	m := NewMatcher(merged)
	name, ok := m.Regions().Canonical("Walloon")
	assert.True(t, ok)
	assert.Equal(t, RegionWallonne, name)
	assert.Len(t, base.Regions[0].Aliases, 5, "merge must not mutate the base vocabulary")
}
