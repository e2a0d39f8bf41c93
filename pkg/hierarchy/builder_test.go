package hierarchy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/justel/pkg/diag"
	"github.com/coolbeans/justel/pkg/types"
)

func lines(parts ...string) string {
	return strings.Join(parts, "\n")
}

func TestBuildFromContentChapterExample(t *testing.T) {
	content := lines(
		TextMarker,
		"**TITLE**[CHAPITRE Ier.] - Dispositions générales",
		"**ARTICLE**[Art.] [1]. Le texte.",
	)

	forest, ok := NewBuilder(nil, nil).BuildFromContent(content)
	require.True(t, ok)
	require.Len(t, forest, 1)

	chapter := forest[0]
	assert.Equal(t, types.KindChapitre, chapter.Kind)
	assert.Equal(t, types.RankChapitre, chapter.Rank())
	assert.Equal(t, "CHAPITRE Ier. Dispositions générales", chapter.Label)
	assert.Equal(t, "Dispositions générales", chapter.Metadata.TitleContent)

	require.Len(t, chapter.Children, 1)
	article := chapter.Children[0]
	assert.Equal(t, types.KindArticle, article.Kind)
	assert.Equal(t, "1", article.Metadata.ArticleRange)
	assert.Equal(t, "Art. 1", article.Label)
	assert.Nil(t, article.Article)
}

func TestBuildFromContentNesting(t *testing.T) {
	content := lines(
		"préface ignorée",
		TextMarker,
		"**TITLE**[LIVRE 1er] \\- Généralités",
		"**TITLE**[TITRE I] \\- Principes",
		"**TITLE**[CHAPITRE 1] \\- Objet",
		"**TITLE**[Section 1] \\- Définitions",
		"**TITLE**[Sous-section 1] \\- Termes",
		"**ARTICLE**[Art.] [1]. Un.",
		"**TITLE**[Section 2] \\- Champ",
		"**ARTICLE**[Art.] [2]. Deux.",
		"**TITLE**[TITRE II] \\- Suite",
		"**TITLE**[Art.] [3]. (REGION WALLONNE)",
		"**ANNEXE**[1]",
		"**ARTICLE**[Art.] [4]. Quatre.",
	)

	forest, ok := NewBuilder(nil, nil).BuildFromContent(content)
	require.True(t, ok)
	require.Len(t, forest, 1)
	assert.Nil(t, forest.CheckRanks())

	livre := forest[0]
	assert.Equal(t, types.KindLivre, livre.Kind)
	require.Len(t, livre.Children, 3)

	titre := livre.Children[0]
	chapter := titre.Children[0]
	require.Len(t, chapter.Children, 2)
	assert.Equal(t, types.KindSection, chapter.Children[0].Kind)
	assert.Equal(t, types.KindSousSection, chapter.Children[0].Children[0].Kind)
	assert.Equal(t, "2", chapter.Children[1].Children[0].Metadata.ArticleRange)

	titreII := livre.Children[1]
	require.Len(t, titreII.Children, 1)
	assert.Equal(t, "3. (REGION WALLONNE)", titreII.Children[0].Metadata.ArticleRange)
	assert.Equal(t, "Art. 3. (REGION WALLONNE)", titreII.Children[0].Label)

	annexe := livre.Children[2]
	assert.Equal(t, types.KindAnnexe, annexe.Kind)
	assert.Equal(t, "ANNEXE 1", annexe.Label)
	require.Len(t, annexe.Children, 1)

	assert.Len(t, forest.ArticleLeaves(), 4)
}

func TestBuildFromContentOrphans(t *testing.T) {
	collector := diag.NewCollector(nil)
	content := lines(
		TextMarker,
		"**ARTICLE**[Art.] [1]. Avant toute division.",
		"**TITLE**[CHAPITRE 1] \\- Objet",
		"**ARTICLE**[Art.] [2]. Dedans.",
	)

	forest, ok := NewBuilder(nil, collector).BuildFromContent(content)
	require.True(t, ok)
	require.Len(t, forest, 2)
	assert.True(t, forest[0].IsArticle())
	assert.Equal(t, 1, collector.Count(diag.CodeOrphanNode))
}

func TestBuildFromContentFlatDocumentHasNoOrphanWarning(t *testing.T) {
	collector := diag.NewCollector(nil)
	content := lines(TextMarker, "**ARTICLE**[Art.] [1]. Un.", "**ARTICLE**[Art.] [2]. Deux.")

	forest, _ := NewBuilder(nil, collector).BuildFromContent(content)
	assert.Len(t, forest, 2)
	assert.Zero(t, collector.Count(diag.CodeOrphanNode))
}

func TestBuildFromContentMissingSection(t *testing.T) {
	collector := diag.NewCollector(nil)
	content := lines(TOCMarker, "**TITLE**[CHAPITRE 1] \\- Objet", "**ARTICLE**[Art.] [1]. Un.")

	forest, ok := NewBuilder(nil, collector).BuildFromContent(content)
	assert.False(t, ok)
	assert.Empty(t, forest)
	assert.Equal(t, 1, collector.Count(diag.CodeSectionMissing))
}

func TestBuildFromContentWithoutSectionMarkers(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		roots    int
		children int
	}{
		{
			name:     "chapter example",
			content:  lines("**TITLE**[CHAPITRE Ier.] - Dispositions générales", "**ARTICLE**[Art.] [1]. Le texte."),
			roots:    1,
			children: 1,
		},
		{
			name:    "flat articles",
			content: lines("**ARTICLE**[Art.] [1]. Un.", "**ARTICLE**[Art.] [2]. Deux."),
			roots:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := diag.NewCollector(nil)
			forest, ok := NewBuilder(nil, collector).BuildFromContent(tt.content)
			require.True(t, ok)
			require.Len(t, forest, tt.roots)
			assert.Len(t, forest[0].Children, tt.children)
			assert.Equal(t, 1, collector.Count(diag.CodeSectionMissing))
			assert.Zero(t, collector.Count(diag.CodeOrphanNode))
		})
	}
}

func TestBuildFromContentStripsUnbalancedBraces(t *testing.T) {
	content := lines(TextMarker, "**TITLE**[}CHAPITRE 2] \\- Objet{", "**ARTICLE**[}Art.] [5] Texte")

	forest, _ := NewBuilder(nil, nil).BuildFromContent(content)
	require.Len(t, forest, 1)
	assert.Equal(t, "CHAPITRE 2", forest[0].Metadata.TitleType)
	assert.Equal(t, "CHAPITRE 2 Objet", forest[0].Label)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "5", forest[0].Children[0].Metadata.ArticleRange)
}

func TestBuildFromTOC(t *testing.T) {
	collector := diag.NewCollector(nil)
	content := lines(
		TOCMarker,
		"**TITLE**[TITRE I] \\- Généralités",
		"Art. 1-3",
		"**TITLE**[CHAPITRE 2] [1 Champ]1",
		"Art. 4",
		"Art.",
		"**TITLE**[broken",
		"**ANNEXE**[A]",
		"**TITLE**[Art.] [5].",
		TextMarker,
		"**ARTICLE**[Art.] [1]. Un.",
	)

	forest, ok := NewBuilder(nil, collector).BuildFromTOC(content)
	require.True(t, ok)
	require.Len(t, forest, 2)
	assert.Nil(t, forest.CheckRanks())

	titre := forest[0]
	require.Len(t, titre.Children, 2)
	assert.Equal(t, "Article 1-3", titre.Children[0].Label)
	assert.Equal(t, "1-3", titre.Children[0].Metadata.ArticleRange)

	chapter := titre.Children[1]
	assert.Equal(t, "CHAPITRE 2 Champ", chapter.Label)
	require.Len(t, chapter.Children, 2)
	assert.Equal(t, "", chapter.Children[1].Metadata.ArticleRange)

	annexe := forest[1]
	assert.Equal(t, "ANNEXE A", annexe.Label)
	require.Len(t, annexe.Children, 1)
	assert.Equal(t, "Article 5.", annexe.Children[0].Label)

	assert.Equal(t, 2, collector.Count(diag.CodeMalformedTOCEntry))
}

func TestBuildAutoFallsBackToTOC(t *testing.T) {
	content := lines(TOCMarker, "**TITLE**[TITRE I] \\- Généralités", "Art. 1", "[3A] ## Texte [3B]", "Texte sans marqueurs.")

	forest := NewBuilder(nil, nil).Build(content, SourceAuto)
	require.Len(t, forest, 1)
	assert.Equal(t, types.KindTitre, forest[0].Kind)

	assert.Empty(t, NewBuilder(nil, nil).Build(content, SourceContent))
}

func TestParseSource(t *testing.T) {
	for name, want := range map[string]Source{"": SourceAuto, "AUTO": SourceAuto, "toc": SourceTOC, " content ": SourceContent} {
		got, err := ParseSource(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSource("xml")
	assert.Error(t, err)
}

func TestOutline(t *testing.T) {
	content := lines(TextMarker, "**TITLE**[CHAPITRE 1] \\- Objet", "**ARTICLE**[Art.] [1]. Un.")
	forest, _ := NewBuilder(nil, nil).BuildFromContent(content)
	forest[0].Children[0].Article = &types.ArticleRecord{ArticleNumber: "1"}

	assert.Equal(t, "CHAPITRE 1 Objet [chapitre]\n  + Art. 1\n", Outline(forest))
}
