package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"EhonBot/internal/domain"
)

func TestIsPictureBookRejectsDenyKeywords(t *testing.T) {
	t.Parallel()

	accepted := domain.CatalogItem{
		Title:   "こぐまちゃんとどうぶつえん",
		Caption: "こぐまちゃんが動物園へ出かけるおはなし。",
	}
	assert.True(t, IsPictureBook(accepted, DefaultDenyKeywords))

	rejectedByTitle := accepted
	rejectedByTitle.Title = "こぐまちゃん文庫版"
	assert.False(t, IsPictureBook(rejectedByTitle, DefaultDenyKeywords))

	rejectedByCaption := accepted
	rejectedByCaption.Caption = "人気コミックの原作絵本"
	assert.False(t, IsPictureBook(rejectedByCaption, DefaultDenyKeywords))

	rejectedBySeries := accepted
	rejectedBySeries.SeriesName = "青い鳥文庫"
	assert.False(t, IsPictureBook(rejectedBySeries, DefaultDenyKeywords))

	rejectedBySize := accepted
	rejectedBySize.Size = "B6判マンガ"
	assert.False(t, IsPictureBook(rejectedBySize, DefaultDenyKeywords))
}

func TestIsPictureBookIsIdempotent(t *testing.T) {
	t.Parallel()

	items := []domain.CatalogItem{
		{Title: "はらぺこあおむし", Caption: "ちいさなあおむしのものがたり"},
		{Title: "ノベライズ版ものがたり", Caption: "小説仕立て"},
		{Title: "", Caption: ""},
	}

	for _, it := range items {
		first := IsPictureBook(it, DefaultDenyKeywords)
		second := IsPictureBook(it, DefaultDenyKeywords)
		assert.Equal(t, first, second, "filter must be a pure predicate for %q", it.Title)
	}
}

func TestIsPictureBookEmptyDenyListAcceptsAll(t *testing.T) {
	t.Parallel()

	it := domain.CatalogItem{Title: "文庫", Caption: "コミック"}
	assert.True(t, IsPictureBook(it, nil))
}
